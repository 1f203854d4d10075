//go:build linux

package hook

import (
	"strconv"

	"github.com/verte-zerg/kero/internal/model"
)

// Key codes from linux/input-event-codes.h.
var linuxKeys = map[uint16]model.KeyToken{
	1: "Escape", 2: "Key1", 3: "Key2", 4: "Key3", 5: "Key4", 6: "Key5",
	7: "Key6", 8: "Key7", 9: "Key8", 10: "Key9", 11: "Key0",
	12: "Minus", 13: "Equal", 14: "Backspace", 15: "Tab",
	16: "Q", 17: "W", 18: "E", 19: "R", 20: "T", 21: "Y", 22: "U", 23: "I", 24: "O", 25: "P",
	26: "LeftBracket", 27: "RightBracket", 28: "Enter", 29: "LControl",
	30: "A", 31: "S", 32: "D", 33: "F", 34: "G", 35: "H", 36: "J", 37: "K", 38: "L",
	39: "Semicolon", 40: "Apostrophe", 41: "Grave", 42: "LShift", 43: "BackSlash",
	44: "Z", 45: "X", 46: "C", 47: "V", 48: "B", 49: "N", 50: "M",
	51: "Comma", 52: "Dot", 53: "Slash", 54: "RShift", 55: "NumpadMultiply",
	56: "LAlt", 57: "Space", 58: "CapsLock",
	59: "F1", 60: "F2", 61: "F3", 62: "F4", 63: "F5", 64: "F6", 65: "F7", 66: "F8", 67: "F9", 68: "F10",
	69: "NumLock", 70: "ScrollLock",
	71: "Numpad7", 72: "Numpad8", 73: "Numpad9", 74: "NumpadSubtract",
	75: "Numpad4", 76: "Numpad5", 77: "Numpad6", 78: "NumpadAdd",
	79: "Numpad1", 80: "Numpad2", 81: "Numpad3", 82: "Numpad0", 83: "NumpadDecimal",
	87: "F11", 88: "F12", 96: "NumpadEnter", 97: "RControl", 98: "NumpadDivide",
	99: "PrintScreen", 100: "RAlt",
	102: "Home", 103: "Up", 104: "PageUp", 105: "Left", 106: "Right",
	107: "End", 108: "Down", 109: "PageDown", 110: "Insert", 111: "Delete",
	113: "Mute", 114: "VolumeDown", 115: "VolumeUp", 119: "Pause",
	125: "LMeta", 126: "RMeta", 127: "Menu",
}

func keyName(code uint16) model.KeyToken {
	if name, ok := linuxKeys[code]; ok {
		return name
	}
	return model.KeyToken("Code" + strconv.Itoa(int(code)))
}
