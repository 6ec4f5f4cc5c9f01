package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/codeRisshi25/flowai/pkg/receiverclient"
)

// main режет файл на чанки и отправляет их на receiver.
func main() {
	var (
		addr        = flag.String("addr", "http://localhost:3001", "receiver base URL")
		transferID  = flag.String("transfer", "", "transfer id (random uuid when empty)")
		chunkSize   = flag.Int64("chunk-size", 8<<20, "chunk size in bytes")
		concurrency = flag.Int("concurrency", 4, "parallel chunk uploads")
		timeout     = flag.Duration("timeout", 30*time.Minute, "overall timeout")
		quiet       = flag.Bool("quiet", false, "disable progress bar")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	id := *transferID
	if id == "" {
		id = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	req := receiverclient.SendRequest{
		Path:        flag.Arg(0),
		TransferID:  id,
		ChunkSize:   *chunkSize,
		Concurrency: *concurrency,
	}
	if !*quiet {
		req.Progress = os.Stdout
	}

	res, err := receiverclient.New(nil).SendFile(ctx, *addr, req)
	if err != nil {
		logrus.WithError(err).WithField("transfer_id", id).Fatal("send file")
	}

	logrus.WithFields(logrus.Fields{
		"transfer_id": res.TransferID,
		"chunks":      len(res.Chunks),
		"size":        res.Size,
	}).Info("file sent")
}
