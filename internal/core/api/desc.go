package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * Service descriptor for schemamend.repair.v1.RepairAPI.
 *
 * Requests and responses travel as google.protobuf.Struct so the wire format
 * needs no generated code; messages.go converts them to typed Go values.
 * The descriptor mirrors what protoc-gen-go-grpc would emit for:
 *
 *   service RepairAPI {
 *     rpc RepairRecords(google.protobuf.Struct) returns (google.protobuf.Struct);
 *     rpc ListPlans(google.protobuf.Struct) returns (google.protobuf.Struct);
 *   }
 */

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "schemamend.repair.v1.RepairAPI"

const (
	repairRecordsMethod = "/" + ServiceName + "/RepairRecords"
	listPlansMethod     = "/" + ServiceName + "/ListPlans"
)

// RepairAPIServer is the server API for the RepairAPI service.
type RepairAPIServer interface {
	RepairRecords(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPlans(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRepairAPIServer registers srv on s.
func RegisterRepairAPIServer(s grpc.ServiceRegistrar, srv RepairAPIServer) {
	s.RegisterService(&RepairAPIServiceDesc, srv)
}

// RepairAPIServiceDesc is the grpc.ServiceDesc for RepairAPI.
var RepairAPIServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RepairAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RepairRecords", Handler: repairRecordsHandler},
		{MethodName: "ListPlans", Handler: listPlansHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "schemamend/repair/v1/repair.proto",
}

func repairRecordsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RepairAPIServer).RepairRecords(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: repairRecordsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RepairAPIServer).RepairRecords(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listPlansHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RepairAPIServer).ListPlans(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listPlansMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RepairAPIServer).ListPlans(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client is a typed client for RepairAPI.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// RepairRecords repairs a batch of JSON records with a named plan.
func (c *Client) RepairRecords(ctx context.Context, req *RepairRecordsRequest, opts ...grpc.CallOption) (*RepairRecordsResponse, error) {
	in, err := req.Struct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, repairRecordsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return ParseRepairRecordsResponse(out)
}

// ListPlans lists the plans the service can apply.
func (c *Client) ListPlans(ctx context.Context, req *ListPlansRequest, opts ...grpc.CallOption) (*ListPlansResponse, error) {
	in, err := req.Struct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listPlansMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return ParseListPlansResponse(out)
}
