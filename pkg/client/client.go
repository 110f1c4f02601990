package client

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"mediaup/internal/server"
	"mediaup/internal/upload/api"
)

type UploadClient struct {
	conn *grpc.ClientConn
}

// NewUploadClient connects to an upload server. Extra options are appended
// after the defaults, so callers may override the transport credentials.
func NewUploadClient(serverAddr string, opts ...grpc.DialOption) (*UploadClient, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.WaitForReady(true)),
	}, opts...)

	conn, err := grpc.NewClient(serverAddr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	return &UploadClient{conn: conn}, nil
}

func (c *UploadClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// UploadFiles sends one batch and waits for its report.
func (c *UploadClient) UploadFiles(ctx context.Context, postID, credential string, itemsJSON []byte) (*api.Report, error) {
	var items any
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		// let the server reject it as a batch-level error
		items = string(itemsJSON)
	}

	req, err := structpb.NewStruct(map[string]any{
		"postId":     postID,
		"credential": credential,
		"items":      items,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, server.UploadFilesFullMethod, req, resp); err != nil {
		return nil, err
	}

	report, err := server.StructToReport(resp)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}
