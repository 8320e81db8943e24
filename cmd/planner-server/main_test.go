package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/tasking-planner/internal/config"
	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/internal/service"
	"github.com/signalsfoundry/tasking-planner/internal/store"
)

func TestPlannerServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	cfg := config.Default()
	cfg.Server.Listen = lis.Addr().String()
	cfg.Server.MetricsListen = ""
	cfg.Store.Path = filepath.Join(t.TempDir(), "runs.db")
	cfg.Log.Level = "warn"

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	runCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(runCtx, cfg, log, lis)
	}()

	conn, err := grpc.NewClient(cfg.Server.Listen, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()

	problem, err := os.ReadFile("../../internal/problem/testdata/satellite-problem01.pddl")
	if err != nil {
		t.Fatalf("read testdata: %v", err)
	}

	client := service.NewPlanningClient(conn)
	resp, err := client.PlanProblem(ctx, service.PlanRequest{Problem: string(problem)}, grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if resp.Failed || len(resp.Plan) != 5 {
		t.Fatalf("Plan response = %+v", resp)
	}

	stop()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-ctx.Done():
		t.Fatalf("server did not shut down")
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != resp.RunID {
		t.Fatalf("recorded runs = %+v, want the served run", runs)
	}
}
