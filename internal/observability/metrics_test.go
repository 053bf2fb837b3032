package observability

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/danmuck/spmctl/internal/client"
	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/danmuck/spmctl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("spmgw", "GET", "/v1/bias", 200, 12*time.Millisecond)

	before := testutil.ToFloat64(clientTransactions.WithLabelValues("Bias.Get", "timeout"))
	ClientObserver{}.ObserveTransaction(client.Report{
		Command:  "Bias.Get",
		Duration: 3 * time.Millisecond,
		BytesOut: 40,
		Err:      fmt.Errorf("%w: read response header", client.ErrTimeout),
	})
	after := testutil.ToFloat64(clientTransactions.WithLabelValues("Bias.Get", "timeout"))
	if after != before+1 {
		t.Fatalf("expected timeout counter to advance: before=%v after=%v", before, after)
	}
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&client.ServerError{Code: 7}, "server_error"},
		{fmt.Errorf("%w (cause: x)", client.ErrConnectionBroken), "broken"},
		{fmt.Errorf("%w: write", client.ErrIO), "io"},
		{protocol.ErrTruncated, "protocol"},
		{fmt.Errorf("%w: arity", protocol.ErrInvalidArgument), "invalid_argument"},
		{errors.New("other"), "error"},
	}
	for _, tc := range cases {
		if got := Outcome(tc.err); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.want, got)
		}
	}
}
