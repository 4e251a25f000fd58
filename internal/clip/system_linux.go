//go:build linux

package clip

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"golang.design/x/clipboard"
)

const systemName = "X11/Wayland"

// toolTimeout bounds one xclip or wl-paste invocation.
const toolTimeout = 2 * time.Second

// selectionTool is the command-line selection client for the session:
// wl-clipboard on Wayland, xclip on X11. golang.design/x/clipboard only
// offers UTF8_STRING and image/png, so every other target goes through it.
type selectionTool struct {
	name  string
	list  []string
	paste func(mime string) []string
	copy  func(mime string) []string
}

var (
	wlClipboard = selectionTool{
		name:  "wl-paste",
		list:  []string{"wl-paste", "--list-types"},
		paste: func(mime string) []string { return []string{"wl-paste", "--no-newline", "--type", mime} },
		copy:  func(mime string) []string { return []string{"wl-copy", "--type", mime} },
	}
	xclip = selectionTool{
		name:  "xclip",
		list:  []string{"xclip", "-selection", "clipboard", "-t", "TARGETS", "-o"},
		paste: func(mime string) []string { return []string{"xclip", "-selection", "clipboard", "-t", mime, "-o"} },
		copy:  func(mime string) []string { return []string{"xclip", "-selection", "clipboard", "-t", mime, "-i"} },
	}
)

func hasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// sessionTool picks the selection client for the running session.
func sessionTool() (selectionTool, bool) {
	if os.Getenv("WAYLAND_DISPLAY") != "" && hasCommand("wl-paste") && hasCommand("wl-copy") {
		return wlClipboard, true
	}
	if os.Getenv("DISPLAY") != "" && hasCommand("xclip") {
		return xclip, true
	}
	return selectionTool{}, false
}

func runTool(argv []string, stdin []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
		// The copy side forks and keeps serving the selection; capturing
		// its output would block until it loses ownership.
		return nil, cmd.Run()
	}
	return cmd.Output()
}

func (t selectionTool) targets() []string {
	out, err := runTool(t.list, nil)
	if err != nil {
		return nil
	}
	var targets []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			targets = append(targets, line)
		}
	}
	return targets
}

func (libClipboard) readRich(f Format) (Content, bool) {
	tool, ok := sessionTool()
	if !ok {
		return nil, false
	}
	targets := tool.targets()

	var want []string
	switch f {
	case FormatHTML:
		want = []string{mimeHTML}
	case FormatRTF:
		want = []string{mimeRTF, "application/rtf"}
	case FormatFiles:
		want = []string{mimeGnomeFiles, mimeURIList}
	}
	for _, mime := range want {
		if !slices.Contains(targets, mime) {
			continue
		}
		data, err := runTool(tool.paste(mime), nil)
		if err != nil {
			slog.Debug("selection read failed", "tool", tool.name, "mime", mime, "err", err)
			continue
		}
		switch f {
		case FormatHTML:
			if len(data) > 0 {
				return HTML(data), true
			}
		case FormatRTF:
			if len(data) > 0 {
				return RTF(data), true
			}
		case FormatFiles:
			if files := parseURIList(data); len(files) > 0 {
				return files, true
			}
		}
	}
	return nil, false
}

// writeRich serves a lone file list as text/uri-list. A selection client
// offers a single target per process, so HTML and RTF, which are always
// written alongside their text, stay with the shadow.
func (libClipboard) writeRich(values []Content) (bool, error) {
	if len(values) != 1 {
		return false, nil
	}
	files, ok := values[0].(FileList)
	if !ok {
		return false, nil
	}
	tool, ok := sessionTool()
	if !ok {
		return false, nil
	}
	if _, err := runTool(tool.copy(mimeURIList), formatURIList(files)); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrUnavailable, tool.name, err)
	}
	return true, nil
}

func (libClipboard) changeToken() uint64 { return 0 }

// watch uses the library's own pollers, one per format, which compare
// content once a second. On Wayland, wl-paste --watch adds a notification
// per selection change, which also catches re-copies and file-only copies.
func (libClipboard) watch(ctx context.Context) []<-chan struct{} {
	srcs := []<-chan struct{}{
		merge(nil,
			clipboard.Watch(ctx, clipboard.FmtText),
			clipboard.Watch(ctx, clipboard.FmtImage),
		),
	}
	if ch, ok := watchWayland(ctx); ok {
		srcs = append(srcs, ch)
	}
	return srcs
}

// watchWayland runs wl-paste --watch, which executes its command once for
// the current selection and then once per change.
func watchWayland(ctx context.Context) (<-chan struct{}, bool) {
	if os.Getenv("WAYLAND_DISPLAY") == "" || !hasCommand("wl-paste") {
		return nil, false
	}
	cmd := exec.CommandContext(ctx, "wl-paste", "--watch", "echo", "changed")
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, false
	}
	if err := cmd.Start(); err != nil {
		slog.Debug("wl-paste --watch unavailable", "err", err)
		return nil, false
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(out)
		first := true
		for sc.Scan() {
			if first {
				first = false
				continue
			}
			select {
			case ch <- struct{}{}:
			default:
			}
		}
		_ = cmd.Wait()
	}()
	return ch, true
}
