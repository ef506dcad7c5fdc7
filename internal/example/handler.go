package example

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/peterbourgon/calltrc"
	"github.com/peterbourgon/calltrc/internal/trcdebug"
	"github.com/peterbourgon/calltrc/internal/example/app/order"
	"github.com/sirupsen/logrus"
)

// NewHandler serves the application over HTTP.
//
//	GET /order/{item}   order an item
//	GET /nolog          untraced health check
//	GET /traces         recent trace lines, grouped by chain
//	GET /debug          process-wide span and proxy counters
//
// Every request starts a new trace chain. The traces route is only served if
// recent is non-nil.
func NewHandler(app *App, recent *calltrc.RecentSink, logger logrus.FieldLogger) http.Handler {
	router := mux.NewRouter()

	if recent != nil {
		router.Methods("GET").Path("/traces").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("content-type", "text/plain; charset=utf-8")
			for _, chain := range recent.Chains() {
				for _, ln := range chain {
					fmt.Fprintln(w, ln.String())
				}
				fmt.Fprintln(w)
			}
		})
	}

	router.Methods("GET").Path("/debug").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			begin, end, exception, rejected     = trcdebug.Spans.Values()
			built, skipped, intercepted, direct = trcdebug.Proxies.Values()
		)
		w.Header().Set("content-type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "spans begin=%d end=%d exception=%d rejected=%d open=%d\n", begin, end, exception, rejected, trcdebug.Spans.Open())
		fmt.Fprintf(w, "proxies built=%d skipped=%d intercepted=%d direct=%d intercept_percent=%.1f\n", built, skipped, intercepted, direct, trcdebug.Proxies.InterceptPercent())
	})

	router.Methods("GET").Path("/order/{item}").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item := mux.Vars(r)["item"]

		res, err := app.Controller.Request(r.Context(), item)
		switch {
		case errors.Is(err, order.ErrIllegalItem):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			logger.WithError(err).WithField("item", item).Error("order failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("content-type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "%s %s\n", res, app.Formatter.Format(r.Context(), item))
	})

	router.Methods("GET").Path("/nolog").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, app.Controller.NoLog())
	})

	return router
}
