package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "educert.v1.Gateway"

// Method names of the Gateway service.
const (
	MethodConnect             = "Connect"
	MethodDisconnect          = "Disconnect"
	MethodStatus              = "Status"
	MethodMintCertificate     = "MintCertificate"
	MethodTransferCertificate = "TransferCertificate"
	MethodQueryCertificates   = "QueryCertificates"
	MethodQueryCertificate    = "QueryCertificate"
	MethodCreateCampaign      = "CreateCampaign"
	MethodQueryCampaigns      = "QueryCampaigns"
)

// FullMethod returns "/educert.v1.Gateway/<method>".
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// GatewayServer is the server API of the Gateway service.
type GatewayServer interface {
	Connect(context.Context, *Empty) (*ConnectResponse, error)
	Disconnect(context.Context, *Empty) (*Empty, error)
	Status(context.Context, *Empty) (*StatusResponse, error)
	MintCertificate(context.Context, *MintCertificateRequest) (*BroadcastResponse, error)
	TransferCertificate(context.Context, *TransferCertificateRequest) (*BroadcastResponse, error)
	QueryCertificates(context.Context, *QueryCertificatesRequest) (*CertificatesResponse, error)
	QueryCertificate(context.Context, *QueryCertificateRequest) (*CertificateResponse, error)
	CreateCampaign(context.Context, *CreateCampaignRequest) (*BroadcastResponse, error)
	QueryCampaigns(context.Context, *Empty) (*CampaignsResponse, error)
}

func unary[Req, Resp any](method string, call func(GatewayServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GatewayServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(GatewayServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// GatewayServiceDesc describes the Gateway service for grpc.Server.RegisterService.
var GatewayServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodConnect, GatewayServer.Connect),
		unary(MethodDisconnect, GatewayServer.Disconnect),
		unary(MethodStatus, GatewayServer.Status),
		unary(MethodMintCertificate, GatewayServer.MintCertificate),
		unary(MethodTransferCertificate, GatewayServer.TransferCertificate),
		unary(MethodQueryCertificates, GatewayServer.QueryCertificates),
		unary(MethodQueryCertificate, GatewayServer.QueryCertificate),
		unary(MethodCreateCampaign, GatewayServer.CreateCampaign),
		unary(MethodQueryCampaigns, GatewayServer.QueryCampaigns),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "educert/v1/gateway.json",
}

// RegisterGatewayServer registers srv on s.
func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&GatewayServiceDesc, srv)
}
