package grpcservice

import (
	"encoding/json"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipnext/internal/service"
)

// toStatus maps service errors onto gRPC status codes. The watcher check
// comes first: a failed subscription is also an AccessError.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var access *service.AccessError
	switch {
	case errors.Is(err, service.ErrWatcherInit):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrFormatNotPresent):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrInvalidPath):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrIO):
		return status.Error(codes.Internal, err.Error())
	case errors.As(err, &access):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}

// toStruct converts a JSON-tagged result into a structpb.Struct, so clients
// see the same camelCase field names as the HTTP surface.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// fromStruct decodes s into the JSON-tagged value v. A nil struct leaves v
// untouched.
func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
