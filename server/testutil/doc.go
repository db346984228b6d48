// Package testutil provides a test server component backed by httptest.Server
// that runs the real server middleware stack.
//
//	srv := testutil.NewComponent()
//	srv.GinEngine().GET("/hello", func(c *gin.Context) {
//	    c.String(200, "world")
//	})
//	srv.Start(ctx)
//	defer srv.Stop(ctx)
//	resp, _ := http.Get(srv.BaseURL() + "/hello")
package testutil
