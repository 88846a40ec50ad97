// Package storage keeps uploaded attachments on local disk, one directory per
// bucket, and hands out expiring signed download URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	e "precisionpulse/errors"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// InjuryFilesBucket holds injury report attachments.
const InjuryFilesBucket = "injury-files"

// Object describes a stored file.
type Object struct {
	Bucket    string
	Path      string
	SizeBytes int64
}

type Local struct {
	root   string
	secret []byte
	logger *zap.Logger
}

func NewLocal(root, secret string, logger *zap.Logger) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Local{root: root, secret: []byte(secret), logger: logger.Named("storage")}, nil
}

// Upload writes r to bucket/objectPath, replacing any existing object.
func (l *Local) Upload(ctx context.Context, bucket, objectPath string, r io.Reader) (Object, error) {
	full, err := l.resolve(bucket, objectPath)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, err
	}

	f, err := os.Create(full)
	if err != nil {
		return Object{}, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return Object{}, fmt.Errorf("failed to store %s/%s: %w", bucket, objectPath, err)
	}

	l.logger.Debug("object stored",
		zap.String("bucket", bucket),
		zap.String("path", objectPath),
		zap.Int64("size", n),
	)
	return Object{Bucket: bucket, Path: objectPath, SizeBytes: n}, nil
}

// Open returns a reader for a stored object.
func (l *Local) Open(bucket, objectPath string) (*os.File, error) {
	full, err := l.resolve(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if os.IsNotExist(err) {
		return nil, e.ErrNotFound
	}
	return f, err
}

// Delete removes a stored object. A missing object is not an error.
func (l *Local) Delete(ctx context.Context, bucket, objectPath string) error {
	full, err := l.resolve(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, objectPath, err)
	}
	l.logger.Debug("object deleted", zap.String("bucket", bucket), zap.String("path", objectPath))
	return nil
}

type fileClaims struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	jwt.RegisteredClaims
}

// SignedURL returns a relative download URL valid for ttl.
func (l *Local) SignedURL(bucket, objectPath string, ttl time.Duration) (string, error) {
	if _, err := l.resolve(bucket, objectPath); err != nil {
		return "", err
	}
	claims := &fileClaims{
		Bucket: bucket,
		Path:   objectPath,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", err
	}
	return "/files/" + url.PathEscape(bucket) + "/" + escapePath(objectPath) + "?token=" + url.QueryEscape(token), nil
}

// Verify checks that token was issued for bucket/objectPath and has not expired.
func (l *Local) Verify(bucket, objectPath, token string) error {
	parsed, err := jwt.ParseWithClaims(token, &fileClaims{}, func(t *jwt.Token) (interface{}, error) {
		return l.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("%w: %v", e.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*fileClaims)
	if !ok || !parsed.Valid || claims.Bucket != bucket || claims.Path != objectPath {
		return e.ErrUnauthorized
	}
	return nil
}

// resolve maps bucket/objectPath under root, refusing anything that would
// escape it.
func (l *Local) resolve(bucket, objectPath string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\.`) {
		return "", e.Validation("bucket", "invalid bucket name")
	}
	clean := path.Clean("/" + objectPath)
	if objectPath == "" || clean == "/" || clean != "/"+objectPath {
		return "", e.Validation("path", "invalid object path")
	}
	return filepath.Join(l.root, bucket, filepath.FromSlash(clean)), nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
