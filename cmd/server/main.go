package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/speakerlab/diascribe/internal/attribute"
	"github.com/speakerlab/diascribe/internal/diarizer"
	"github.com/speakerlab/diascribe/internal/embedding"
	"github.com/speakerlab/diascribe/internal/jobs"
	"github.com/speakerlab/diascribe/internal/media"
	"github.com/speakerlab/diascribe/internal/recognizer"
	"github.com/speakerlab/diascribe/internal/server"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Recognizer struct {
		ServerURL string `yaml:"server_url"`
		Model     string `yaml:"model"`
		Language  string `yaml:"language"`
	} `yaml:"recognizer"`
	Diarizer struct {
		Enabled   bool   `yaml:"enabled"`
		ServerURL string `yaml:"server_url"`
	} `yaml:"diarizer"`
	Embedding struct {
		ServerURL string `yaml:"server_url"`
		Dim       int    `yaml:"dim"`
		Workers   int    `yaml:"workers"`
	} `yaml:"embedding"`
	Clustering struct {
		NumSpeakers int `yaml:"num_speakers"` // 0 = auto
	} `yaml:"clustering"`
	Transcription struct {
		UploadDir       string `yaml:"upload_dir"`
		OutputDir       string `yaml:"output_dir"`
		SaveTranscripts bool   `yaml:"save_transcripts"`
		WatchDir        string `yaml:"watch_dir"`
		Format          string `yaml:"format"`
		Workers         int    `yaml:"workers"`
		QueueSize       int    `yaml:"queue_size"`
	} `yaml:"transcription"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
}

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "config.yaml", "Configuration file path")
	flag.Parse()

	// Optional .env for credentials (redis password etc.)
	_ = godotenv.Load()

	// Load configuration
	config := &Config{}
	if err := loadConfig(configFile, config); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// External collaborators are built here and injected; nothing
	// inside the core lazily initializes global model state.
	rec := recognizer.NewWhisperClient(config.Recognizer.ServerURL, config.Recognizer.Model)

	var diar diarizer.Engine
	if config.Diarizer.Enabled {
		diar = diarizer.NewHTTPEngine(config.Diarizer.ServerURL)
	}

	encoder := embedding.NewHTTPEncoder(config.Embedding.ServerURL, config.Embedding.Dim)
	embedder := embedding.NewService(media.WAVCropper{}, encoder, config.Embedding.Workers)
	merger := attribute.NewMerger(embedder)

	var store jobs.Store = jobs.NewMemoryStore()
	if config.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		store = jobs.NewRedisStore(client, config.Redis.Prefix, 24*time.Hour)
		log.Printf("Using redis job store at %s", config.Redis.Addr)
	}

	srv, err := server.New(server.Config{
		Host:            config.Server.Host,
		Port:            config.Server.Port,
		UploadDir:       config.Transcription.UploadDir,
		OutputDir:       config.Transcription.OutputDir,
		SaveTranscripts: config.Transcription.SaveTranscripts,
		WatchDir:        config.Transcription.WatchDir,
		Workers:         config.Transcription.Workers,
		QueueSize:       config.Transcription.QueueSize,
		DefaultLanguage: config.Recognizer.Language,
		DefaultSpeakers: config.Clustering.NumSpeakers,
		DefaultFormat:   config.Transcription.Format,
		UseDiarizer:     config.Diarizer.Enabled,
	}, server.Deps{
		Recognizer: rec,
		Diarizer:   diar,
		Merger:     merger,
		Store:      store,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down server...")
	srv.Stop()
}

func loadConfig(filename string, config *Config) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	return decoder.Decode(config)
}
