// asanti decodes BER files against an ASN.1 schema and prints every tag.
//
// Usage:
//
//	asanti -schema module.asn[,other.asn] -type Document [flags] data.ber...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/brightsparklabs/asanti-sub002"
	"github.com/brightsparklabs/asanti-sub002/decoder"
	"github.com/brightsparklabs/asanti-sub002/export"
	"github.com/brightsparklabs/asanti-sub002/logger"
	"github.com/brightsparklabs/asanti-sub002/metrics"
)

func main() {
	schemaFiles := flag.String("schema", "", "comma separated ASN.1 module files")
	module := flag.String("module", "", "module searched first for the top-level type (default: first loaded)")
	topLevel := flag.String("type", "", "top-level type of every PDU")
	validate := flag.Bool("validate", false, "validate every PDU")
	cborOut := flag.String("cbor", "", "write the decoded PDUs as a CBOR sequence to this file")
	interactive := flag.Bool("shell", false, "open an interactive shell after decoding")
	maxPDUs := flag.Int("max-pdus", 0, "stop after this many PDUs per file (0 for no limit)")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address (empty to disable)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger.Setup(*debug)

	if *schemaFiles == "" || *topLevel == "" {
		fmt.Fprintln(os.Stderr, "asanti: -schema and -type are required")
		flag.Usage()
		os.Exit(2)
	}

	m := metrics.New()
	if *metricsAddr != "" {
		srv := &http.Server{Addr: *metricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "addr", *metricsAddr, "err", err)
			}
		}()
		defer srv.Close()
	}

	a, err := asanti.LoadSchema(strings.Split(*schemaFiles, ","),
		asanti.WithLogger(logger.NewLogger("asanti")),
		asanti.WithMetrics(m),
		asanti.WithMaxPDUs(*maxPDUs),
		asanti.WithPrimaryModule(*module),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "asanti: %v\n", err)
		os.Exit(1)
	}

	ok := true
	var all []*decoder.Data
	for _, path := range flag.Args() {
		pdus, err := a.DecodeFile(path, *topLevel)
		if err != nil {
			slog.Error("failed to decode file", "path", path, "err", err)
			ok = false
			continue
		}
		for i, data := range pdus {
			fmt.Printf("== %s pdu %d\n", path, i)
			printPDU(os.Stdout, data)
			if *validate && !validatePDU(a, data) {
				ok = false
			}
		}
		all = append(all, pdus...)
	}

	if *cborOut != "" {
		if err := writeCBOR(*cborOut, all); err != nil {
			slog.Error("failed to write CBOR", "path", *cborOut, "err", err)
			ok = false
		}
	}

	if *interactive {
		if err := newShell(a, all, os.Stdout).run(); err != nil {
			fmt.Fprintf(os.Stderr, "asanti: %v\n", err)
			ok = false
		}
	}

	if !ok {
		os.Exit(1)
	}
}

// printable returns the display form of tag, falling back to hex when the
// bytes do not decode as the tag type.
func printable(data *decoder.Data, tag string) string {
	if v, err := data.PrintableString(tag); err == nil {
		return v
	}
	hex, _ := data.HexString(tag)
	return hex
}

func printPDU(w io.Writer, data *decoder.Data) {
	for _, tag := range data.Tags() {
		fmt.Fprintf(w, "%s = %s\n", tag, printable(data, tag))
	}
	for _, tag := range data.UnmappedTags() {
		hex, _ := data.HexString(tag)
		fmt.Fprintf(w, "%s (unmapped) = %s\n", tag, hex)
	}
}

func validatePDU(a *asanti.Asanti, data *decoder.Data) bool {
	result, err := a.Validate(context.Background(), data)
	if err != nil {
		slog.Error("validation aborted", "err", err)
		return false
	}
	for _, f := range result.Failures {
		fmt.Printf("  FAIL %s\n", f)
	}
	return result.Valid()
}

func writeCBOR(path string, data []*decoder.Data) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.EncodeAll(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
