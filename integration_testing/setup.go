//go:build integration

package integration_testing

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/2beens/gymsession/internal"
	"github.com/2beens/gymsession/internal/config"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/suite"
)

const (
	serverPort = 9000
	serverHost = "localhost"

	routineExercises = 3
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type IntegrationTestSuite struct {
	suite.Suite

	dockerPool *dockertest.Pool
	redisAddr  string
	backend    *fakeTrainingBackend
	server     *internal.Server
	httpClient *http.Client
	teardown   []func()
}

func (s *IntegrationTestSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s.httpClient = &http.Client{Timeout: 10 * time.Second}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	var err error
	s.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}
	if err = s.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}
	fmt.Println("dockertest pool ping successful")

	redisPort, err := s.redisSetup()
	if err != nil {
		s.cleanup()
		log.Fatalf("failed to setup redis: %s", err)
	}
	s.redisAddr = net.JoinHostPort("localhost", redisPort)
	fmt.Println("redis setup successful")

	s.backend = newFakeTrainingBackend(routineExercises)
	s.teardown = append(s.teardown, s.backend.Close)
	fmt.Printf("fake training backend listening on: %s\n", s.backend.URL())

	cfg := getTestConfig(redisPort, s.backend.URL())
	s.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			BackendApiToken:         backendToken,
			RedisPassword:           "",
			VersionInfo:             "test-version-info",
			HoneycombTracingEnabled: false,
		},
	)
	if err != nil {
		s.cleanup()
		log.Fatalf("new server: %s", err)
	}

	s.server.Serve(cfg.Host, cfg.Port)
	if err := s.waitForServer(ctx); err != nil {
		s.cleanup()
		log.Fatalf("server not ready: %s", err)
	}
	fmt.Println("server started")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.cleanup()
}

func (s *IntegrationTestSuite) cleanup() {
	fmt.Println(" --> cleaning up test suite...")
	if s.server != nil {
		if err := s.server.GracefulShutdown(); err != nil {
			fmt.Printf(" --> test suite server shutdown: %s\n", err)
		}
	}
	fmt.Println(" --> test suite server shut down")
	for _, teardown := range s.teardown {
		teardown()
	}
	fmt.Println(" --> test suite cleanup done")
}

func (s *IntegrationTestSuite) waitForServer(ctx context.Context) error {
	for {
		req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := s.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func getTestConfig(redisPort, backendURL string) *config.Config {
	return &config.Config{
		Environment:                      "integration",
		Host:                             serverHost,
		Port:                             serverPort,
		PrometheusMetricsHost:            serverHost,
		PrometheusMetricsPort:            "9002",
		LogLevel:                         "debug",
		BackendBaseURL:                   backendURL,
		BackendTimeoutSeconds:            5,
		ClockTickMillis:                  1000,
		RecommendationCacheTTLSeconds:    60,
		RecommendationCacheSizeMegabytes: 1,
		StartRateLimitPerMin:             20,
		RedisHost:                        "localhost",
		RedisPort:                        redisPort,
		ResumeTTLMinutes:                 10,
	}
}

func (s *IntegrationTestSuite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "gymsession-redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %w", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := redisResource.Close(); err != nil {
			fmt.Printf("redis teardown: %s\n", err)
		}
	})

	redisPort := redisResource.GetPort("6379/tcp")
	addr := net.JoinHostPort("localhost", redisPort)
	if err := s.dockerPool.Retry(func() error {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			return err
		}
		return conn.Close()
	}); err != nil {
		return "", fmt.Errorf("wait for redis: %w", err)
	}

	return redisPort, nil
}
