package api

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

// RequestLogger logs every request with its status and duration
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		log.Printf("%s %s %s %d %s %s",
			ctx.Method(),
			ctx.RequestURI(),
			ctx.RemoteAddr(),
			ctx.Response.StatusCode(),
			fasthttp.StatusMessage(ctx.Response.StatusCode()),
			time.Since(start),
		)
	}
}
