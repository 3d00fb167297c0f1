/*
Package fawkes is an embeddable HTTP/1.1 server framework.

Routes are method + pattern pairs backed by a radix tree that supports
literal segments, named parameters (:name) and trailing catch-alls (*name).
Middleware can be attached router-wide or per route, and runs pre-handle in
registration order and post-handle in reverse; either phase may abort the
chain. Each accepted connection is driven by a persistent request/response
loop honoring keep-alive, Expect: 100-continue, graceful shutdown and three
independent timeouts.

# Usage

	svr := fawkes.NewServer()

	svr.Use(middlewares.AccessLog())

	svr.GET("/ping", func(ctx context.Context, req *fawkes.Request, resp *fawkes.Response) error {
		resp.Text(http.StatusOK, "Pong!")
		return nil
	})

	svr.GET("/users/:id/profile", func(ctx context.Context, req *fawkes.Request, resp *fawkes.Response) error {
		id, _ := req.Params().Get("id")
		return resp.JSON(http.StatusOK, map[string]string{"id": id})
	})

	if err := svr.ListenAndServe("0.0.0.0:7890"); err != nil {
		slog.Error("server exited", "error", err)
	}
*/
package fawkes
