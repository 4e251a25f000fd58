package grpcservice

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.klb.dev/clipnext/internal/service"
)

// Client is a typed client for ClipboardService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func invoke[Resp any, PResp interface {
	*Resp
	proto.Message
}](ctx context.Context, cc grpc.ClientConnInterface, name string, in proto.Message, opts ...grpc.CallOption) (PResp, error) {
	out := PResp(new(Resp))
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, name string, in proto.Message) error {
	_, err := invoke[emptypb.Empty](ctx, c.cc, name, in)
	return err
}

func (c *Client) boolCall(ctx context.Context, name string) (bool, error) {
	out, err := invoke[wrapperspb.BoolValue](ctx, c.cc, name, &emptypb.Empty{})
	if err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) stringCall(ctx context.Context, name string, in proto.Message) (string, error) {
	out, err := invoke[wrapperspb.StringValue](ctx, c.cc, name, in)
	if err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) structCall(ctx context.Context, name string, in proto.Message, v any) error {
	out, err := invoke[structpb.Struct](ctx, c.cc, name, in)
	if err != nil {
		return err
	}
	return fromStruct(out, v)
}

func (c *Client) StartWatch(ctx context.Context) error {
	return c.call(ctx, "StartWatch", &emptypb.Empty{})
}

func (c *Client) StopWatch(ctx context.Context) error {
	return c.call(ctx, "StopWatch", &emptypb.Empty{})
}

// Watching reports whether the service's change watcher is running.
func (c *Client) Watching(ctx context.Context) (bool, error) { return c.boolCall(ctx, "Watching") }

func (c *Client) HasText(ctx context.Context) (bool, error)  { return c.boolCall(ctx, "HasText") }
func (c *Client) HasRTF(ctx context.Context) (bool, error)   { return c.boolCall(ctx, "HasRtf") }
func (c *Client) HasHTML(ctx context.Context) (bool, error)  { return c.boolCall(ctx, "HasHtml") }
func (c *Client) HasImage(ctx context.Context) (bool, error) { return c.boolCall(ctx, "HasImage") }
func (c *Client) HasFiles(ctx context.Context) (bool, error) { return c.boolCall(ctx, "HasFiles") }

func (c *Client) ReadText(ctx context.Context) (string, error) {
	return c.stringCall(ctx, "ReadText", &emptypb.Empty{})
}

func (c *Client) ReadRTF(ctx context.Context) (string, error) {
	return c.stringCall(ctx, "ReadRtf", &emptypb.Empty{})
}

func (c *Client) ReadHTML(ctx context.Context) (string, error) {
	return c.stringCall(ctx, "ReadHtml", &emptypb.Empty{})
}

// ReadImage caches the clipboard image under savePath ("" for the server's
// default directory) and returns its description.
func (c *Client) ReadImage(ctx context.Context, savePath string) (service.ReadImage, error) {
	var out service.ReadImage
	err := c.structCall(ctx, "ReadImage", wrapperspb.String(savePath), &out)
	return out, err
}

func (c *Client) ReadFiles(ctx context.Context) (service.ReadFiles, error) {
	var out service.ReadFiles
	err := c.structCall(ctx, "ReadFiles", &emptypb.Empty{}, &out)
	return out, err
}

// ReadClipboard reads every format present in one call.
func (c *Client) ReadClipboard(ctx context.Context, opts service.SnapshotOptions) (service.Snapshot, error) {
	var out service.Snapshot
	in, err := toStruct(opts)
	if err != nil {
		return out, err
	}
	err = c.structCall(ctx, "ReadClipboard", in, &out)
	return out, err
}

func (c *Client) WriteText(ctx context.Context, content string) error {
	return c.call(ctx, "WriteText", wrapperspb.String(content))
}

func (c *Client) WriteRTF(ctx context.Context, content string) error {
	return c.call(ctx, "WriteRtf", wrapperspb.String(content))
}

func (c *Client) WriteHTML(ctx context.Context, content string) error {
	return c.call(ctx, "WriteHtml", wrapperspb.String(content))
}

func (c *Client) WriteImage(ctx context.Context, imagePath string) error {
	return c.call(ctx, "WriteImage", wrapperspb.String(imagePath))
}

func (c *Client) WriteFiles(ctx context.Context, paths []string) error {
	values := make([]*structpb.Value, len(paths))
	for i, p := range paths {
		values[i] = structpb.NewStringValue(p)
	}
	return c.call(ctx, "WriteFiles", &structpb.ListValue{Values: values})
}

func (c *Client) Clear(ctx context.Context) error {
	return c.call(ctx, "Clear", &emptypb.Empty{})
}

func (c *Client) GetFilePath(ctx context.Context) (string, error) {
	return c.stringCall(ctx, "GetFilePath", &emptypb.Empty{})
}

// Events opens the event stream. Recv returns one event name per change.
func (c *Client) Events(ctx context.Context) (grpc.ServerStreamingClient[wrapperspb.StringValue], error) {
	desc := &ServiceDesc.Streams[0]
	stream, err := c.cc.NewStream(ctx, desc, fullMethod("Events"))
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, wrapperspb.StringValue]{ClientStream: stream}
	// io.EOF means the server already ended the stream; Recv reports why.
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// BearerToken returns per-RPC credentials that send token in the
// authorization header. They are accepted over insecure transports so the
// IPC socket can use them too.
func BearerToken(token string) credentials.PerRPCCredentials { return bearerToken(token) }

type bearerToken string

func (t bearerToken) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(t)}, nil
}

func (bearerToken) RequireTransportSecurity() bool { return false }
