package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	errMissingRoot    = errors.New("storage root directory is required")
	errMissingBaseURL = errors.New("storage base url is required")
	errInvalidFolder  = errors.New("folder name must be a single path segment")
	errEmptyFilename  = errors.New("filename is required")
	noOpLogger        = zap.NewNop()
)

// Store saves uploaded document files on the local disk and addresses them
// by public URL.
type Store struct {
	root    string
	baseURL string
	clock   func() time.Time
	logger  *zap.Logger
}

// StoreConfig describes the dependencies of the file store.
type StoreConfig struct {
	// Root is the directory uploaded files live under.
	Root string
	// BaseURL prefixes every returned file URL, e.g. http://host/files.
	BaseURL string
	Clock   func() time.Time
	Logger  *zap.Logger
}

// NewStore validates the configuration and ensures the root directory
// exists.
func NewStore(cfg StoreConfig) (*Store, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errMissingRoot
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errMissingBaseURL
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Store{
		root:    cfg.Root,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		clock:   clock,
		logger:  logger,
	}, nil
}

// Upload writes the content under folder with a collision-free generated
// name keeping the original extension, and returns the public URL. A failed
// write leaves no partial file behind.
func (s *Store) Upload(folder, filename string, content io.Reader) (string, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" || strings.ContainsAny(folder, "/\\") || folder == "." || folder == ".." {
		return "", errInvalidFolder
	}
	if strings.TrimSpace(filename) == "" {
		return "", errEmptyFilename
	}

	suffix, err := randomSuffix()
	if err != nil {
		return "", fmt.Errorf("storage: random suffix: %w", err)
	}
	name := fmt.Sprintf("%d-%s%s", s.clock().UnixMilli(), suffix, strings.ToLower(filepath.Ext(filename)))

	directory := filepath.Join(s.root, folder)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("storage: create folder: %w", err)
	}

	target := filepath.Join(directory, name)
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		if removeErr := os.Remove(target); removeErr != nil {
			s.logger.Warn("failed to remove partial upload", zap.String("path", target), zap.Error(removeErr))
		}
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("storage: close file: %w", err)
	}

	return s.baseURL + "/" + folder + "/" + name, nil
}

// Delete removes the file behind a previously returned URL. It reports
// false, without error, for URLs outside this store or files already gone.
func (s *Store) Delete(fileURL string) (bool, error) {
	relative, ok := strings.CutPrefix(fileURL, s.baseURL+"/")
	if !ok {
		return false, nil
	}
	relative = path.Clean("/" + relative)[1:]
	if relative == "" || strings.Contains(relative, "..") {
		return false, nil
	}

	target := filepath.Join(s.root, filepath.FromSlash(relative))
	if err := os.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: remove file: %w", err)
	}
	return true, nil
}

// Root reports the directory files are served from.
func (s *Store) Root() string {
	return s.root
}

func randomSuffix() (string, error) {
	raw := make([]byte, 6)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
