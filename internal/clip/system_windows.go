//go:build windows

package clip

// #cgo LDFLAGS: -luser32 -lshell32
//
// #include <windows.h>
// #include <stdlib.h>
// #include <string.h>
//
// static LRESULT CALLBACK clipnext_wnd_proc(HWND hwnd, UINT msg, WPARAM wp, LPARAM lp) {
//     if (msg == WM_CLIPBOARDUPDATE) {
//         PostMessage(hwnd, WM_USER + 1, 0, 0);
//         return 0;
//     }
//     return DefWindowProc(hwnd, msg, wp, lp);
// }
//
// static HWND clipnext_listen(void) {
//     WNDCLASSA wc = {0};
//     wc.lpfnWndProc   = clipnext_wnd_proc;
//     wc.hInstance     = GetModuleHandle(NULL);
//     wc.lpszClassName = "ClipnextClipboard";
//     RegisterClassA(&wc);
//     HWND hwnd = CreateWindowExA(0, "ClipnextClipboard", NULL, 0,
//         0, 0, 0, 0, HWND_MESSAGE, NULL, GetModuleHandle(NULL), NULL);
//     if (hwnd != NULL && !AddClipboardFormatListener(hwnd)) {
//         DestroyWindow(hwnd);
//         return NULL;
//     }
//     return hwnd;
// }
//
// static void clipnext_unlisten(HWND hwnd) {
//     RemoveClipboardFormatListener(hwnd);
//     DestroyWindow(hwnd);
// }
//
// static int clipnext_pump(HWND hwnd) {
//     MSG msg;
//     int changed = 0;
//     while (PeekMessage(&msg, hwnd, 0, 0, PM_REMOVE)) {
//         if (msg.message == WM_USER + 1) { changed = 1; }
//         TranslateMessage(&msg);
//         DispatchMessage(&msg);
//     }
//     return changed;
// }
//
// static int clipnext_open(void) {
//     for (int i = 0; i < 10; i++) {
//         if (OpenClipboard(NULL)) { return 1; }
//         Sleep(5);
//     }
//     return 0;
// }
//
// static void *clipnext_get(UINT format, SIZE_T *n) {
//     *n = 0;
//     HANDLE h = GetClipboardData(format);
//     if (h == NULL) { return NULL; }
//     void *p = GlobalLock(h);
//     if (p == NULL) { return NULL; }
//     SIZE_T size = GlobalSize(h);
//     void *out = malloc(size);
//     if (out != NULL) {
//         memcpy(out, p, size);
//         *n = size;
//     }
//     GlobalUnlock(h);
//     return out;
// }
//
// static int clipnext_set(UINT format, const void *data, SIZE_T n) {
//     HGLOBAL h = GlobalAlloc(GMEM_MOVEABLE, n);
//     if (h == NULL) { return 0; }
//     void *p = GlobalLock(h);
//     if (p == NULL) { GlobalFree(h); return 0; }
//     memcpy(p, data, n);
//     GlobalUnlock(h);
//     if (SetClipboardData(format, h) == NULL) { GlobalFree(h); return 0; }
//     return 1;
// }
import "C"

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
	"unsafe"
)

const systemName = "Windows Clipboard"

const windowsPumpInterval = 50 * time.Millisecond

func registeredFormat(name string) C.UINT {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return C.RegisterClipboardFormatA(cs)
}

var (
	cfHTML = registeredFormat("HTML Format")
	cfRTF  = registeredFormat("Rich Text Format")
)

// withClipboard runs fn with the clipboard open on a locked OS thread.
func withClipboard(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if C.clipnext_open() == 0 {
		return fmt.Errorf("%w: OpenClipboard", ErrUnavailable)
	}
	defer C.CloseClipboard()
	return fn()
}

func clipboardData(format C.UINT) []byte {
	var out []byte
	_ = withClipboard(func() error {
		var n C.SIZE_T
		p := C.clipnext_get(format, &n)
		if p == nil {
			return nil
		}
		defer C.free(p)
		out = C.GoBytes(p, C.int(n))
		return nil
	})
	return out
}

func (libClipboard) readRich(f Format) (Content, bool) {
	switch f {
	case FormatHTML:
		data := clipboardData(cfHTML)
		if len(data) == 0 {
			return nil, false
		}
		html, err := decodeCFHTML(data)
		if err != nil {
			slog.Debug("clipboard HTML unreadable", "err", err)
			return nil, false
		}
		return HTML(html), html != ""
	case FormatRTF:
		if data := bytes.TrimRight(clipboardData(cfRTF), "\x00"); len(data) > 0 {
			return RTF(data), true
		}
	case FormatFiles:
		data := clipboardData(C.CF_HDROP)
		if len(data) == 0 {
			return nil, false
		}
		files, err := decodeDropFiles(data)
		if err != nil {
			slog.Debug("clipboard file list unreadable", "err", err)
			return nil, false
		}
		return files, len(files) > 0
	}
	return nil, false
}

// writeRich replaces the clipboard with every value in one
// Open/Empty/Set/Close transaction.
func (libClipboard) writeRich(values []Content) (bool, error) {
	type entry struct {
		format C.UINT
		data   []byte
	}
	var entries []entry
	for _, v := range values {
		switch c := v.(type) {
		case Text:
			entries = append(entries, entry{C.CF_UNICODETEXT, encodeUTF16(string(c))})
		case HTML:
			entries = append(entries, entry{cfHTML, append(encodeCFHTML(string(c)), 0)})
		case RTF:
			entries = append(entries, entry{cfRTF, append([]byte(c), 0)})
		case FileList:
			entries = append(entries, entry{C.CF_HDROP, encodeDropFiles(c)})
		default:
			return false, nil
		}
	}

	err := withClipboard(func() error {
		if C.EmptyClipboard() == 0 {
			return fmt.Errorf("%w: EmptyClipboard", ErrUnavailable)
		}
		for _, e := range entries {
			p := C.CBytes(e.data)
			ok := C.clipnext_set(e.format, p, C.SIZE_T(len(e.data)))
			C.free(p)
			if ok == 0 {
				return fmt.Errorf("%w: SetClipboardData(%d)", ErrUnavailable, uint(e.format))
			}
		}
		return nil
	})
	return err == nil, err
}

func (libClipboard) changeToken() uint64 { return uint64(C.GetClipboardSequenceNumber()) }

// watch owns a message-only window registered with
// AddClipboardFormatListener. The window lives on one locked OS thread,
// which is also the thread that pumps its messages.
func (libClipboard) watch(ctx context.Context) []<-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hwnd := C.clipnext_listen()
		if hwnd == nil {
			slog.Warn("clipboard format listener unavailable")
			return
		}
		defer C.clipnext_unlisten(hwnd)

		t := time.NewTicker(windowsPumpInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if C.clipnext_pump(hwnd) != 0 {
					select {
					case ch <- struct{}{}:
					default:
					}
				}
			}
		}
	}()
	return []<-chan struct{}{ch}
}
