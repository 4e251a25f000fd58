package grpcservice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// InvokePath is the HTTP route for command invocation.
const InvokePath = "/v1/invoke/{command}"

// Commands lists the command names accepted by Invoke. The HTTP handler
// rejects any other name before reading the request body.
var Commands = []string{
	"start_watch", "stop_watch", "is_watching",
	"has_text", "has_rtf", "has_html", "has_image", "has_files",
	"read_text", "read_rtf", "read_html", "read_image", "read_files", "read_clipboard",
	"write_text", "write_rtf", "write_html", "write_image", "write_files",
	"clear", "get_file_path",
}

// InvokeArgs carries the camelCase arguments of an invoked command. Each
// command reads only the fields it needs.
type InvokeArgs struct {
	Content       string   `json:"content"`
	SavePath      string   `json:"savePath"`
	ImagePath     string   `json:"imagePath"`
	FilesPath     []string `json:"filesPath"`
	ImageAutoSave bool     `json:"imageAutoSave"`
	FilePath      string   `json:"filePath"`
}

// Invoke runs command by name. Errors are gRPC status errors.
func (s *Server) Invoke(ctx context.Context, command string, args InvokeArgs) (proto.Message, error) {
	none := &emptypb.Empty{}
	switch command {
	case "start_watch":
		return s.StartWatch(ctx, none)
	case "stop_watch":
		return s.StopWatch(ctx, none)
	case "is_watching":
		return s.Watching(ctx, none)

	case "has_text":
		return s.HasText(ctx, none)
	case "has_rtf":
		return s.HasRtf(ctx, none)
	case "has_html":
		return s.HasHtml(ctx, none)
	case "has_image":
		return s.HasImage(ctx, none)
	case "has_files":
		return s.HasFiles(ctx, none)

	case "read_text":
		return s.ReadText(ctx, none)
	case "read_rtf":
		return s.ReadRtf(ctx, none)
	case "read_html":
		return s.ReadHtml(ctx, none)
	case "read_image":
		return s.ReadImage(ctx, wrapperspb.String(args.SavePath))
	case "read_files":
		return s.ReadFiles(ctx, none)
	case "read_clipboard":
		opts, err := structpb.NewStruct(map[string]any{
			"imageAutoSave": args.ImageAutoSave,
			"filePath":      args.FilePath,
		})
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return s.ReadClipboard(ctx, opts)

	case "write_text":
		return s.WriteText(ctx, wrapperspb.String(args.Content))
	case "write_rtf":
		return s.WriteRtf(ctx, wrapperspb.String(args.Content))
	case "write_html":
		return s.WriteHtml(ctx, wrapperspb.String(args.Content))
	case "write_image":
		return s.WriteImage(ctx, wrapperspb.String(args.ImagePath))
	case "write_files":
		values := make([]any, len(args.FilesPath))
		for i, p := range args.FilesPath {
			values[i] = p
		}
		list, err := structpb.NewList(values)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return s.WriteFiles(ctx, list)

	case "clear":
		return s.Clear(ctx, none)
	case "get_file_path":
		return s.GetFilePath(ctx, none)

	default:
		return nil, status.Errorf(codes.Unimplemented, "unknown command %q", command)
	}
}

// RegisterInvokeHandler mounts POST /v1/invoke/{command} on mux. Responses
// and errors use the mux's marshaler and error mapping.
func RegisterInvokeHandler(mux *gwruntime.ServeMux, s *Server) error {
	return mux.HandlePath(http.MethodPost, InvokePath, func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		ctx := r.Context()
		_, outbound := gwruntime.MarshalerForRequest(mux, r)

		if err := s.checkToken(r.Header.Get("Authorization")); err != nil {
			gwruntime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}

		command := params["command"]
		if !slices.Contains(Commands, command) {
			gwruntime.HTTPError(ctx, mux, outbound, w, r, status.Errorf(codes.Unimplemented, "unknown command %q", command))
			return
		}

		var args InvokeArgs
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
			gwruntime.HTTPError(ctx, mux, outbound, w, r, status.Errorf(codes.InvalidArgument, "decode arguments: %v", err))
			return
		}

		resp, err := s.Invoke(ctx, command, args)
		if err != nil {
			slog.Debug("invoke failed", "command", command, "err", err)
			gwruntime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}

		data, err := outbound.Marshal(resp)
		if err != nil {
			gwruntime.HTTPError(ctx, mux, outbound, w, r, status.Error(codes.Internal, err.Error()))
			return
		}
		w.Header().Set("Content-Type", outbound.ContentType(resp))
		_, _ = w.Write(data)
	})
}
