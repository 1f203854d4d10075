//go:build darwin

package hook

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

static Boolean axCheckTrusted(void) {
        const void *keys[] = { kAXTrustedCheckOptionPrompt };
        const void *values[] = { kCFBooleanTrue };
        CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                     &kCFTypeDictionaryKeyCallBacks,
                                                     &kCFTypeDictionaryValueCallBacks);
        Boolean trusted = AXIsProcessTrustedWithOptions(options);
        CFRelease(options);
        return trusted;
}

extern CGEventRef goHandleKeyEvent(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CFRunLoopSourceRef startEventTap(uintptr_t handle, CGEventMask mask, CFMachPortRef *tapOut) {
        CFMachPortRef tap = CGEventTapCreate(kCGSessionEventTap,
                                             kCGHeadInsertEventTap,
                                             kCGEventTapOptionListenOnly,
                                             mask,
                                             goHandleKeyEvent,
                                             (void *)handle);
        if (tap == NULL) {
                return NULL;
        }
        CGEventTapEnable(tap, true);
        CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
        *tapOut = tap;
        return source;
}

static void enableTap(CFMachPortRef tap) {
        CGEventTapEnable(tap, true);
}

static CFRunLoopRef currentRunLoop(void) {
        return CFRunLoopGetCurrent();
}

static CGEventMask cgEventMaskBit(CGEventType type) {
        return ((CGEventMask)1) << type;
}

static void addSourceToRunLoop(CFRunLoopRef loop, CFRunLoopSourceRef source) {
        CFRunLoopAddSource(loop, source, kCFRunLoopCommonModes);
}

static void runCurrentRunLoop(void) {
        CFRunLoopRun();
}

static void stopRunLoop(CFRunLoopRef loop) {
        CFRunLoopStop(loop);
}

static int64_t cgEventGetKeycode(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
}

static int64_t cgEventIsAutorepeat(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGKeyboardEventAutorepeat);
}
*/
import "C"

import (
	"context"
	"errors"
	"runtime"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"

	"github.com/verte-zerg/kero/internal/model"
)

type macSource struct {
	now func() time.Time
}

func nativeSource(opts Options) Source {
	return &macSource{now: opts.Clock}
}

type macKeyStream struct {
	emit     func(model.KeyEvent) error
	now      func() time.Time
	tap      C.CFMachPortRef
	stopLoop func()
	err      error
	// modifiers tracks flagsChanged keys, which carry no up/down marker.
	modifiers map[int]bool
}

func (s *macKeyStream) emitEvent(ev model.KeyEvent) {
	if s.err != nil {
		return
	}
	if err := s.emit(ev); err != nil {
		s.err = err
		if s.stopLoop != nil {
			s.stopLoop()
		}
	}
}

func (s *macKeyStream) handle(eventType C.CGEventType, event C.CGEventRef) {
	keycode := int(C.cgEventGetKeycode(event))
	now := s.now()
	switch eventType {
	case C.kCGEventKeyDown:
		if C.cgEventIsAutorepeat(event) != 0 {
			return
		}
		s.emitEvent(model.KeyEvent{Token: macKeyName(keycode), Transition: model.Down, Time: now})
	case C.kCGEventKeyUp:
		s.emitEvent(model.KeyEvent{Token: macKeyName(keycode), Transition: model.Up, Time: now})
	case C.kCGEventFlagsChanged:
		down := !s.modifiers[keycode]
		s.modifiers[keycode] = down
		transition := model.Up
		if down {
			transition = model.Down
		}
		s.emitEvent(model.KeyEvent{Token: macKeyName(keycode), Transition: transition, Time: now})
	}
}

// Stream runs a listen-only Quartz event tap on a locked OS thread until
// ctx is done or emit fails.
func (s *macSource) Stream(ctx context.Context, emit func(model.KeyEvent) error) error {
	if C.axCheckTrusted() == C.Boolean(0) {
		return ErrAccessibilityPermission
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	stream := &macKeyStream{emit: emit, now: s.now, modifiers: map[int]bool{}}
	handle := cgo.NewHandle(stream)
	defer handle.Delete()

	mask := C.cgEventMaskBit(C.kCGEventKeyDown) |
		C.cgEventMaskBit(C.kCGEventKeyUp) |
		C.cgEventMaskBit(C.kCGEventFlagsChanged)

	var tap C.CFMachPortRef
	source := C.startEventTap(C.uintptr_t(handle), mask, &tap)
	if source == 0 {
		return errors.New("failed to create CGEvent tap")
	}
	defer C.CFRelease(C.CFTypeRef(source))
	defer C.CFRelease(C.CFTypeRef(tap))
	stream.tap = tap

	loop := C.currentRunLoop()
	var stopOnce sync.Once
	stream.stopLoop = func() {
		stopOnce.Do(func() {
			C.stopRunLoop(loop)
		})
	}
	C.addSourceToRunLoop(loop, source)

	stopped := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stream.stopLoop()
		case <-stopped:
		}
		close(watcherDone)
	}()

	C.runCurrentRunLoop()
	stream.stopLoop()
	close(stopped)
	<-watcherDone
	if stream.err != nil {
		return stream.err
	}
	return ctx.Err()
}

//export goHandleKeyEvent
func goHandleKeyEvent(_ C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	handle := cgo.Handle(uintptr(userInfo))
	stream, ok := handle.Value().(*macKeyStream)
	if !ok {
		return event
	}
	switch eventType {
	case C.kCGEventTapDisabledByTimeout, C.kCGEventTapDisabledByUserInput:
		C.enableTap(stream.tap)
	case C.kCGEventKeyDown, C.kCGEventKeyUp, C.kCGEventFlagsChanged:
		stream.handle(eventType, event)
	default:
		// ignore other events
	}
	return event
}
