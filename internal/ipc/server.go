package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"glimpse/internal/captures"
	"glimpse/internal/daemon"
	"glimpse/internal/logging"
	"glimpse/internal/scheduler"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Glimpse", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func convertSessionInfo(info scheduler.SessionInfo) SessionInfo {
	return SessionInfo{
		SessionID:       info.ID,
		StartedAt:       info.StartedAt,
		IntervalSeconds: int(info.Interval / time.Second),
		DurationSeconds: int(info.Duration / time.Second),
		ExpiresAt:       info.ExpiresAt,
		Processed:       info.Processed,
		Accepted:        info.Accepted,
	}
}

func (s *service) SessionStart(req SessionStartRequest, resp *SessionStartResponse) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return errors.New("session id required")
	}
	interval := time.Duration(req.IntervalSeconds) * time.Second
	duration := time.Duration(req.DurationSeconds) * time.Second
	if err := s.daemon.StartSession(req.SessionID, req.OutputDir, interval, duration); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "session started"
	s.log().Info("session started via IPC",
		logging.String(logging.FieldSessionID, req.SessionID))
	return nil
}

func (s *service) SessionStop(req SessionStopRequest, resp *SessionStopResponse) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return errors.New("session id required")
	}
	s.daemon.StopSession(req.SessionID)
	resp.Stopped = true
	s.log().Info("session stopped via IPC",
		logging.String(logging.FieldSessionID, req.SessionID))
	return nil
}

func (s *service) Sessions(_ SessionsRequest, resp *SessionsResponse) error {
	infos := s.daemon.Sessions()
	resp.Sessions = make([]SessionInfo, 0, len(infos))
	for _, info := range infos {
		resp.Sessions = append(resp.Sessions, convertSessionInfo(info))
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.StartedAt = status.StartedAt
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockFilePath
	resp.PID = os.Getpid()
	resp.Sessions = make([]SessionInfo, 0, len(status.Sessions))
	for _, info := range status.Sessions {
		resp.Sessions = append(resp.Sessions, convertSessionInfo(info))
	}
	return nil
}

func (s *service) Ingest(req IngestRequest, resp *IngestResponse) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return errors.New("session id required")
	}
	if strings.TrimSpace(req.ImagePath) == "" {
		return errors.New("image path required")
	}
	result, err := s.daemon.IngestImage(s.ctx, req.SessionID, req.ImagePath)
	if err != nil {
		return err
	}
	resp.Accepted = result.Accepted
	resp.DiscardReason = string(result.DiscardReason)
	resp.ImagePath = result.ImagePath
	resp.Similarity = result.Similarity
	resp.RecordID = result.RecordID
	return nil
}

func (s *service) RecordsList(req RecordsListRequest, resp *RecordsListResponse) error {
	records, err := s.listRecords(req)
	if err != nil {
		return err
	}
	resp.Records = make([]CaptureRecord, 0, len(records))
	for _, record := range records {
		resp.Records = append(resp.Records, CaptureRecord{
			ID:            record.ID,
			SessionID:     record.SessionID,
			CapturedAt:    record.CapturedAt,
			ImagePath:     record.ImagePath,
			ExtractedText: record.ExtractedText,
		})
	}
	return nil
}

func (s *service) listRecords(req RecordsListRequest) ([]*captures.Record, error) {
	if strings.TrimSpace(req.SessionID) != "" {
		return s.daemon.Records(s.ctx, req.SessionID)
	}
	return s.daemon.RecentRecords(s.ctx, req.Limit)
}

func (s *service) RecordsClear(req RecordsClearRequest, resp *RecordsClearResponse) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return errors.New("session id required")
	}
	removed, err := s.daemon.ClearRecords(s.ctx, req.SessionID)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("records cleared",
		logging.String(logging.FieldSessionID, req.SessionID),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) RecordsStats(_ RecordsStatsRequest, resp *RecordsStatsResponse) error {
	stats, err := s.daemon.RecordStats(s.ctx)
	if err != nil {
		return err
	}
	resp.Stats = make([]SessionStats, 0, len(stats))
	for _, entry := range stats {
		resp.Stats = append(resp.Stats, SessionStats{
			SessionID: entry.SessionID,
			Count:     entry.Count,
			Latest:    entry.Latest,
		})
	}
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.TableExists = health.TableExists
	resp.ColumnsPresent = append(resp.ColumnsPresent, health.ColumnsPresent...)
	resp.MissingColumns = append(resp.MissingColumns, health.MissingColumns...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalRecords = health.TotalRecords
	resp.Error = health.Error
	return err
}
