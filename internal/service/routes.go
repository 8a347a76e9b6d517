package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	AuthServiceName    = "savings.v1.AuthService"
	SavingsServiceName = "savings.v1.SavingsService"
)

// Interceptors is the handler chain. Outer runs first on every procedure,
// Auth runs next on every procedure except Register and Login, and Inner
// runs last with the caller's identity in the context.
type Interceptors struct {
	Outer []connect.Interceptor
	Auth  connect.Interceptor
	Inner []connect.Interceptor
}

func (i Interceptors) options(authenticated bool) []connect.HandlerOption {
	chain := append([]connect.Interceptor{}, i.Outer...)
	if authenticated && i.Auth != nil {
		chain = append(chain, i.Auth)
	}
	chain = append(chain, i.Inner...)
	return []connect.HandlerOption{
		connect.WithCodec(Codec),
		connect.WithInterceptors(chain...),
	}
}

// Procedure returns the HTTP path of a procedure, e.g.
// "/savings.v1.SavingsService/Contribute".
func Procedure(service, method string) string {
	return "/" + service + "/" + method
}

func handle[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// Mount registers every procedure of both services on mux.
func Mount(mux *http.ServeMux, authSvc *AuthService, savingsSvc *SavingsService, ic Interceptors) {
	public := ic.options(false)
	private := ic.options(true)

	a := func(method string) string { return Procedure(AuthServiceName, method) }
	handle(mux, a("Register"), authSvc.Register, public)
	handle(mux, a("Login"), authSvc.Login, public)
	handle(mux, a("GetCurrentUser"), authSvc.GetCurrentUser, private)

	s := func(method string) string { return Procedure(SavingsServiceName, method) }
	handle(mux, s("CreateGroup"), savingsSvc.CreateGroup, private)
	handle(mux, s("UpdateGroup"), savingsSvc.UpdateGroup, private)
	handle(mux, s("GetGroup"), savingsSvc.GetGroup, private)
	handle(mux, s("ListMyGroups"), savingsSvc.ListMyGroups, private)
	handle(mux, s("ListAvailableGroups"), savingsSvc.ListAvailableGroups, private)
	handle(mux, s("JoinGroup"), savingsSvc.JoinGroup, private)
	handle(mux, s("JoinByCode"), savingsSvc.JoinByCode, private)
	handle(mux, s("LeaveGroup"), savingsSvc.LeaveGroup, private)
	handle(mux, s("ListMembers"), savingsSvc.ListMembers, private)
	handle(mux, s("Contribute"), savingsSvc.Contribute, private)
	handle(mux, s("RequestWithdrawal"), savingsSvc.RequestWithdrawal, private)
	handle(mux, s("ProcessWithdrawal"), savingsSvc.ProcessWithdrawal, private)
	handle(mux, s("ListGroupTransactions"), savingsSvc.ListGroupTransactions, private)
	handle(mux, s("GetTransaction"), savingsSvc.GetTransaction, private)
	handle(mux, s("GetGroupStats"), savingsSvc.GetGroupStats, private)
	handle(mux, s("GetUserSummary"), savingsSvc.GetUserSummary, private)
	handle(mux, s("GetAdminStats"), savingsSvc.GetAdminStats, private)
	handle(mux, s("ListNotifications"), savingsSvc.ListNotifications, private)
	handle(mux, s("MarkNotificationRead"), savingsSvc.MarkNotificationRead, private)
	handle(mux, s("MarkAllNotificationsRead"), savingsSvc.MarkAllNotificationsRead, private)
}
