package publish_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/unitmap/internal/config"
	"github.com/gyaneshwarpardhi/unitmap/internal/pack"
	"github.com/gyaneshwarpardhi/unitmap/internal/publish"
)

type fakeClient struct {
	exists  bool
	made    []string
	objects map[string]string
	failOn  string
}

func (f *fakeClient) BucketExists(context.Context, string) (bool, error) { return f.exists, nil }

func (f *fakeClient) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeClient) PutObject(_ context.Context, _, key string, r io.Reader, size int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if key == f.failOn {
		return minio.UploadInfo{}, errors.New("boom")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if int64(len(data)) != size {
		return minio.UploadInfo{}, errors.New("size mismatch")
	}
	f.objects[key] = string(data)
	return minio.UploadInfo{Key: key, Size: size}, nil
}

func manifest(t *testing.T) (string, *pack.Manifest) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Shared"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui.unit.tar.zst"), []byte("ui"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Shared", "C.mat.unit.tar.zst"), []byte("cmat"), 0o644))
	return dir, &pack.Manifest{
		BuildID: "b1",
		Units: []pack.Unit{
			{Key: "ui", File: "ui.unit.tar.zst"},
			{Key: "Shared/C.mat", File: "Shared/C.mat.unit.tar.zst"},
			{Key: "planned-only"},
		},
	}
}

func TestPublish(t *testing.T) {
	dir, m := manifest(t)
	client := &fakeClient{objects: map[string]string{}}
	p := publish.New(client, "units", "/releases/", nil)

	keys, err := p.Publish(context.Background(), dir, m)
	require.NoError(t, err)
	require.Equal(t, []string{"releases/b1/ui.unit.tar.zst", "releases/b1/Shared/C.mat.unit.tar.zst"}, keys)
	require.Equal(t, "cmat", client.objects["releases/b1/Shared/C.mat.unit.tar.zst"])
	require.Equal(t, []string{"units"}, client.made)

	_, err = p.Publish(context.Background(), dir, m)
	require.NoError(t, err)
	require.Len(t, client.made, 1, "bucket is checked once")
}

func TestPublish_StopsOnError(t *testing.T) {
	dir, m := manifest(t)
	client := &fakeClient{exists: true, objects: map[string]string{}, failOn: "b1/Shared/C.mat.unit.tar.zst"}
	p := publish.New(client, "units", "", nil)

	keys, err := p.Publish(context.Background(), dir, m)
	require.ErrorContains(t, err, "publish Shared/C.mat")
	require.Equal(t, []string{"b1/ui.unit.tar.zst"}, keys)
	require.Empty(t, client.made)
}

func TestNewS3Publisher_RequiresCredentials(t *testing.T) {
	_, err := publish.NewS3Publisher(config.S3Conf{Endpoint: "localhost:9000", Bucket: "units"}, nil)
	require.ErrorContains(t, err, "access key")

	_, err = publish.NewS3Publisher(config.S3Conf{Bucket: "units"}, nil)
	require.ErrorContains(t, err, "endpoint")
}
