package grabber

import (
	"context"
	"sync"

	"github.com/tauraamui/xerror"
	"github.com/tauraamui/yuvcapture/pkg/capture"
	"github.com/tauraamui/yuvcapture/pkg/configdef"
	"github.com/tauraamui/yuvcapture/pkg/grabber/process"
	"github.com/tauraamui/yuvcapture/pkg/log"
	"github.com/tauraamui/yuvcapture/pkg/subscription"
	"github.com/tauraamui/yuvcapture/pkg/video/videoconv"
	"github.com/tauraamui/yuvcapture/pkg/video/videofeed"
)

// NewServer returns a server which resolves its settings with resolver. A nil
// backend or converter is picked from the loaded configuration instead.
func NewServer(resolver configdef.Resolver, backend videofeed.Backend, converter videoconv.Converter) *Server {
	return &Server{
		configResolver: resolver,
		feedBackend:    backend,
		converter:      converter,
		finished:       make(chan interface{}),
		shutdownDone:   make(chan interface{}),
	}
}

type Server struct {
	configResolver configdef.Resolver
	feedBackend    videofeed.Backend
	converter      videoconv.Converter
	config         configdef.Values
	mu             sync.Mutex
	session        *capture.Session
	sub            subscription.Subscription
	captureProc    process.CaptureProcess
	finished       chan interface{}
	shutdownOnce   sync.Once
	shutdownDone   chan interface{}
}

func (s *Server) LoadConfiguration() error {
	values, err := s.configResolver.Resolve()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = values
	if s.feedBackend == nil {
		s.feedBackend = videofeed.Resolve(values.FeedAddress)
	}
	if s.converter == nil {
		s.converter = videoconv.Resolve(values.Converter)
	}
	return nil
}

// Open creates the capture session and its output file. It must succeed
// before the server subscribes to the feed.
func (s *Server) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := capture.Open(s.config, s.converter)
	if err != nil {
		return err
	}
	s.session = session
	return nil
}

func (s *Server) Connect() error {
	return s.connect(context.Background())
}

func (s *Server) ConnectWithCancel(cancel context.Context) error {
	return s.connect(cancel)
}

func (s *Server) connect(cancel context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return xerror.New("cannot subscribe before the capture session is open")
	}

	log.Info("Subscribing to topic: [%s]...", s.config.Topic)
	sub, err := subscription.SubscribeWithCancel(cancel, s.config.Topic, s.config.FeedAddress, s.feedBackend)
	if err != nil {
		return xerror.Errorf("%w: %v", capture.ErrResource, err)
	}

	log.Info("Subscribed successfully to topic: [%s]", sub.Topic())
	s.sub = sub
	return nil
}

func (s *Server) Shutdown() chan interface{} {
	s.shutdownOnce.Do(s.shutdown)
	return s.shutdownDone
}

func (s *Server) shutdown() {
	s.shutdownProcesses()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		log.Warn("Unsubscribing from topic: [%s]...", s.sub.Topic())
		if err := s.sub.Close(); err != nil {
			log.Error("Unable to unsubscribe cleanly: %v", err)
		}
	}

	if s.session != nil {
		if err := s.session.Close(); err != nil {
			log.Error(err.Error())
		}
	}
	close(s.shutdownDone)
}
