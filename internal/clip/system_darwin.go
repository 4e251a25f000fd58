//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
// #include <stdlib.h>
// #include <string.h>
//
// NSInteger clipnext_change_count() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
//
// static void *clipnext_copy_data(NSData *data, int *n) {
//     *n = 0;
//     if (data == nil || [data length] == 0) { return NULL; }
//     void *out = malloc([data length]);
//     if (out == NULL) { return NULL; }
//     memcpy(out, [data bytes], [data length]);
//     *n = (int)[data length];
//     return out;
// }
//
// void *clipnext_pb_data(const char *uti, int *n) {
//     @autoreleasepool {
//         NSString *type = [NSString stringWithUTF8String:uti];
//         NSData *data = [[NSPasteboard generalPasteboard] dataForType:type];
//         return clipnext_copy_data(data, n);
//     }
// }
//
// // clipnext_pb_files returns the file URLs on the pasteboard as
// // newline-separated POSIX paths.
// void *clipnext_pb_files(int *n) {
//     @autoreleasepool {
//         NSPasteboard *pb = [NSPasteboard generalPasteboard];
//         NSArray *urls = [pb readObjectsForClasses:@[[NSURL class]]
//                                           options:@{ NSPasteboardURLReadingFileURLsOnlyKey : @YES }];
//         NSMutableArray *paths = [NSMutableArray array];
//         for (NSURL *url in urls) {
//             if ([[url path] length] > 0) { [paths addObject:[url path]]; }
//         }
//         NSData *data = [[paths componentsJoinedByString:@"\n"] dataUsingEncoding:NSUTF8StringEncoding];
//         return clipnext_copy_data(data, n);
//     }
// }
//
// int clipnext_pb_write(const char *text, int textLen,
//                       const char *html, int htmlLen,
//                       const char *rtf, int rtfLen,
//                       const char *files, int filesLen) {
//     @autoreleasepool {
//         NSPasteboard *pb = [NSPasteboard generalPasteboard];
//         NSMutableArray *objects = [NSMutableArray array];
//         NSPasteboardItem *item = [[[NSPasteboardItem alloc] init] autorelease];
//         BOOL used = NO;
//         if (text != NULL) {
//             [item setData:[NSData dataWithBytes:text length:textLen] forType:NSPasteboardTypeString];
//             used = YES;
//         }
//         if (html != NULL) {
//             [item setData:[NSData dataWithBytes:html length:htmlLen] forType:NSPasteboardTypeHTML];
//             used = YES;
//         }
//         if (rtf != NULL) {
//             [item setData:[NSData dataWithBytes:rtf length:rtfLen] forType:NSPasteboardTypeRTF];
//             used = YES;
//         }
//         if (used) { [objects addObject:item]; }
//         if (files != NULL) {
//             NSString *joined = [[[NSString alloc] initWithBytes:files length:filesLen encoding:NSUTF8StringEncoding] autorelease];
//             for (NSString *p in [joined componentsSeparatedByString:@"\n"]) {
//                 if ([p length] > 0) { [objects addObject:[NSURL fileURLWithPath:p]]; }
//             }
//         }
//         [pb clearContents];
//         if ([objects count] == 0) { return 1; }
//         return [pb writeObjects:objects] ? 1 : 0;
//     }
// }
import "C"

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unsafe"
)

const systemName = "macOS NSPasteboard"

const darwinPollInterval = 100 * time.Millisecond

func pasteboardData(uti string) []byte {
	cs := C.CString(uti)
	defer C.free(unsafe.Pointer(cs))
	var n C.int
	p := C.clipnext_pb_data(cs, &n)
	if p == nil {
		return nil
	}
	defer C.free(p)
	return C.GoBytes(p, n)
}

func (libClipboard) readRich(f Format) (Content, bool) {
	switch f {
	case FormatHTML:
		if data := pasteboardData("public.html"); len(data) > 0 {
			return HTML(data), true
		}
	case FormatRTF:
		if data := pasteboardData("public.rtf"); len(data) > 0 {
			return RTF(data), true
		}
	case FormatFiles:
		var n C.int
		p := C.clipnext_pb_files(&n)
		if p == nil {
			return nil, false
		}
		defer C.free(p)
		var files FileList
		for _, path := range strings.Split(string(C.GoBytes(p, n)), "\n") {
			if path != "" {
				files = append(files, path)
			}
		}
		if len(files) > 0 {
			return files, true
		}
	}
	return nil, false
}

// cBytes returns a C copy of b, or nil when b is absent.
func cBytes(b []byte, present bool) (*C.char, C.int) {
	if !present {
		return nil, 0
	}
	return (*C.char)(C.CBytes(append(b, 0))), C.int(len(b))
}

// writeRich writes every value in one pasteboard transaction: text, HTML
// and RTF as one item, each file as a file URL.
func (libClipboard) writeRich(values []Content) (bool, error) {
	var (
		text, html, rtf, files []byte
		hasText, hasHTML       bool
		hasRTF, hasFiles       bool
	)
	for _, v := range values {
		switch c := v.(type) {
		case Text:
			text, hasText = []byte(c), true
		case HTML:
			html, hasHTML = []byte(c), true
		case RTF:
			rtf, hasRTF = []byte(c), true
		case FileList:
			files, hasFiles = []byte(strings.Join(c, "\n")), true
		default:
			return false, nil
		}
	}

	ct, ctn := cBytes(text, hasText)
	ch, chn := cBytes(html, hasHTML)
	cr, crn := cBytes(rtf, hasRTF)
	cf, cfn := cBytes(files, hasFiles)
	for _, p := range []*C.char{ct, ch, cr, cf} {
		if p != nil {
			defer C.free(unsafe.Pointer(p))
		}
	}
	if C.clipnext_pb_write(ct, ctn, ch, chn, cr, crn, cf, cfn) == 0 {
		return false, fmt.Errorf("%w: pasteboard write", ErrUnavailable)
	}
	return true, nil
}

func (libClipboard) changeToken() uint64 { return uint64(C.clipnext_change_count()) }

// watch polls the pasteboard change counter, which every writer bumps.
func (libClipboard) watch(ctx context.Context) []<-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		t := time.NewTicker(darwinPollInterval)
		defer t.Stop()
		last := C.clipnext_change_count()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				cc := C.clipnext_change_count()
				if cc != last {
					last = cc
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
