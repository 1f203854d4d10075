//go:build darwin

package hook

import (
	"strconv"

	"github.com/verte-zerg/kero/internal/model"
)

// Virtual key codes from HIToolbox/Events.h, named like their Linux
// counterparts so records stay comparable across machines.
var macKeys = map[int]model.KeyToken{
	0: "A", 1: "S", 2: "D", 3: "F", 4: "H", 5: "G", 6: "Z", 7: "X", 8: "C", 9: "V",
	11: "B", 12: "Q", 13: "W", 14: "E", 15: "R", 16: "Y", 17: "T",
	18: "Key1", 19: "Key2", 20: "Key3", 21: "Key4", 22: "Key6", 23: "Key5",
	24: "Equal", 25: "Key9", 26: "Key7", 27: "Minus", 28: "Key8", 29: "Key0",
	30: "RightBracket", 31: "O", 32: "U", 33: "LeftBracket", 34: "I", 35: "P",
	36: "Enter", 37: "L", 38: "J", 39: "Apostrophe", 40: "K", 41: "Semicolon",
	42: "BackSlash", 43: "Comma", 44: "Slash", 45: "N", 46: "M", 47: "Dot",
	48: "Tab", 49: "Space", 50: "Grave", 51: "Backspace", 53: "Escape",
	54: "RMeta", 55: "LMeta", 56: "LShift", 57: "CapsLock", 58: "LAlt", 59: "LControl",
	60: "RShift", 61: "RAlt", 62: "RControl", 63: "Function",
	65: "NumpadDecimal", 67: "NumpadMultiply", 69: "NumpadAdd", 75: "NumpadDivide",
	76: "NumpadEnter", 78: "NumpadSubtract",
	82: "Numpad0", 83: "Numpad1", 84: "Numpad2", 85: "Numpad3", 86: "Numpad4",
	87: "Numpad5", 88: "Numpad6", 89: "Numpad7", 91: "Numpad8", 92: "Numpad9",
	96: "F5", 97: "F6", 98: "F7", 99: "F3", 100: "F8", 101: "F9", 103: "F11",
	109: "F10", 111: "F12", 118: "F4", 120: "F2", 122: "F1",
	115: "Home", 116: "PageUp", 117: "Delete", 119: "End", 121: "PageDown",
	123: "Left", 124: "Right", 125: "Down", 126: "Up",
}

func macKeyName(code int) model.KeyToken {
	if name, ok := macKeys[code]; ok {
		return name
	}
	return model.KeyToken("Code" + strconv.Itoa(code))
}
