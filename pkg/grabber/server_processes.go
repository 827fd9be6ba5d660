package grabber

import (
	"github.com/tauraamui/yuvcapture/pkg/grabber/process"
)

func (s *Server) SetupProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil || s.session == nil {
		return
	}
	proc := process.NewCaptureProcess(s.sub, s.session)
	proc.Setup()
	s.captureProc = proc
}

func (s *Server) RunProcesses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captureProc == nil {
		return
	}
	s.captureProc.Start()

	go func(proc process.CaptureProcess) {
		select {
		case <-proc.Finished():
			close(s.finished)
		case <-s.shutdownDone:
		}
	}(s.captureProc)
}

// Finished is closed once the capture completes or fails on its own.
func (s *Server) Finished() <-chan interface{} {
	return s.finished
}

// Err reports why the capture ended, nil when it completed or was stopped.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captureProc == nil {
		return nil
	}
	return s.captureProc.Err()
}

func (s *Server) shutdownProcesses() {
	s.mu.Lock()
	proc := s.captureProc
	s.mu.Unlock()

	if proc == nil {
		return
	}
	proc.Stop()
	proc.Wait()
}
