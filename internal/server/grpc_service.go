package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"mediaup/internal/upload/api"
	perrors "mediaup/pkg/errors"
	"mediaup/pkg/logger"
)

const (
	UploadServiceName       = "mediaup.v1.UploadService"
	UploadFilesFullMethod   = "/" + UploadServiceName + "/UploadFiles"
	uploadFilesMethodSuffix = "UploadFiles"
)

// Uploader is satisfied by *api.Service.
type Uploader interface {
	UploadBatch(ctx context.Context, postID, credential string, itemsJSON []byte) (*api.Report, error)
}

// UploadServiceServer is the server side of mediaup.v1.UploadService.
type UploadServiceServer interface {
	UploadFiles(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// UploadServiceDesc describes the service for grpc.Server. Messages are
// google.protobuf.Struct on both sides: the request carries postId,
// credential and items; the response is the batch report.
var UploadServiceDesc = grpc.ServiceDesc{
	ServiceName: UploadServiceName,
	HandlerType: (*UploadServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: uploadFilesMethodSuffix,
			Handler:    uploadFilesHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mediaup/v1/upload.proto",
}

func RegisterUploadServiceServer(s grpc.ServiceRegistrar, srv UploadServiceServer) {
	s.RegisterService(&UploadServiceDesc, srv)
}

func uploadFilesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(UploadServiceServer).UploadFiles(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: UploadFilesFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(UploadServiceServer).UploadFiles(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type UploadService struct {
	uploader Uploader
	logger   *logger.Logger
}

var _ UploadServiceServer = (*UploadService)(nil)

func NewUploadService(uploader Uploader, log *logger.Logger) *UploadService {
	if log == nil {
		log = logger.Global()
	}
	return &UploadService{
		uploader: uploader,
		logger:   log.WithField("component", "grpc-service"),
	}
}

func (s *UploadService) UploadFiles(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	postID := fields["postId"].GetStringValue()
	log := s.logger.WithFields("operation", "UploadFiles", "postId", postID)

	log.Info("upload files request received")

	itemsJSON, err := ItemsJSON(fields["items"])
	if err != nil {
		log.Warn("items could not be read", "error", err)
		return nil, status.Errorf(codes.InvalidArgument, "items: %v", err)
	}

	startTime := time.Now()
	report, err := s.uploader.UploadBatch(ctx, postID, fields["credential"].GetStringValue(), itemsJSON)
	if err != nil {
		if errors.Is(err, perrors.ErrInvalidBatch) {
			log.Warn("batch rejected", "error", err)
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		log.Error("batch failed", "error", err)
		return nil, status.Errorf(codes.Internal, "upload failed: %v", err)
	}

	log.Info("upload files completed", "succeeded", report.Succeeded, "failed", report.Failed, "duration", time.Since(startTime))

	resp, err := ReportToStruct(report)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode report: %v", err)
	}
	return resp, nil
}

// ItemsJSON returns the items sequence as JSON text. Hosts may send either a
// list value or a string holding the JSON text; anything else is passed
// through and rejected by the batch validation.
func ItemsJSON(v *structpb.Value) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
		return []byte(s.StringValue), nil
	}
	return protojson.Marshal(v)
}

func ReportToStruct(report *api.Report) (*structpb.Struct, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func StructToReport(s *structpb.Struct) (*api.Report, error) {
	data, err := protojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	report := &api.Report{}
	if err := json.Unmarshal(data, report); err != nil {
		return nil, err
	}
	return report, nil
}
