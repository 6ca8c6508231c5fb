// Command coach is the device-side client: it owns the local profile documents, keeps them in
// sync with the remote API and asks for plans.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vitalcoach/coach-api/internal/app/plans"
	"github.com/vitalcoach/coach-api/internal/app/profiles"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, errOut: os.Stderr}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// describe renders err with any field-level details on their own lines.
func describe(err error) string {
	var details map[string]any
	var pe *profiles.Error
	var ge *plans.Error
	switch {
	case errors.As(err, &pe):
		details = pe.Details
	case errors.As(err, &ge):
		details = ge.Details
	}

	var b strings.Builder
	b.WriteString("error: ")
	b.WriteString(err.Error())
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %v", k, details[k])
	}
	return b.String()
}
