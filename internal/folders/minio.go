package folders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"planroom/api/internal/util"
)

// MinioDrive implements Drive over an S3-compatible object store. Each folder
// is a metadata object keyed by id, plus a pointer object under its parent's
// prefix so FindFolder needs no listing.
type MinioDrive struct {
	client  *minio.Client
	bucket  string
	ownerID string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	OwnerID   string
}

func NewMinioDrive(ctx context.Context, cfg MinioConfig) (*MinioDrive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check drive bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create drive bucket: %w", err)
		}
	}

	return &MinioDrive{client: client, bucket: cfg.Bucket, ownerID: cfg.OwnerID}, nil
}

func metaKey(id string) string {
	return "folders/" + id + ".json"
}

func pointerKey(parentID, name string) string {
	return "byparent/" + parentID + "/" + name
}

func (d *MinioDrive) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	id := util.NewFolderID()
	meta := Metadata{
		ID:       id,
		Name:     name,
		ParentID: parentID,
		Owner:    d.ownerID,
	}
	if err := d.putMeta(ctx, meta); err != nil {
		return "", err
	}
	if err := d.putPointer(ctx, parentID, name, id); err != nil {
		return "", err
	}
	return id, nil
}

func (d *MinioDrive) RenameFolder(ctx context.Context, id, name string) error {
	meta, err := d.readMeta(ctx, id)
	if err != nil {
		return err
	}
	if meta.Name == name {
		return nil
	}
	if err := d.putPointer(ctx, meta.ParentID, name, id); err != nil {
		return err
	}
	if err := d.client.RemoveObject(ctx, d.bucket, pointerKey(meta.ParentID, meta.Name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove old folder pointer: %w", err)
	}
	meta.Name = name
	return d.putMeta(ctx, meta)
}

func (d *MinioDrive) Trash(ctx context.Context, id string) error {
	meta, err := d.readMeta(ctx, id)
	if err != nil {
		return err
	}
	if meta.Trashed {
		return nil
	}
	if err := d.client.RemoveObject(ctx, d.bucket, pointerKey(meta.ParentID, meta.Name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove folder pointer: %w", err)
	}
	meta.Trashed = true
	return d.putMeta(ctx, meta)
}

func (d *MinioDrive) Metadata(ctx context.Context, id string) (Metadata, error) {
	meta, err := d.readMeta(ctx, id)
	if err != nil {
		return Metadata{}, err
	}
	meta.OwnedByCaller = meta.Owner == d.ownerID
	return meta, nil
}

func (d *MinioDrive) Exists(ctx context.Context, id string) (bool, error) {
	_, err := d.client.StatObject(ctx, d.bucket, metaKey(id), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat folder %s: %w", id, err)
	}
	meta, err := d.readMeta(ctx, id)
	if err != nil {
		return false, err
	}
	return !meta.Trashed, nil
}

func (d *MinioDrive) FindFolder(ctx context.Context, parentID, name string) (string, bool, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, pointerKey(parentID, name), minio.GetObjectOptions{})
	if err != nil {
		return "", false, fmt.Errorf("get folder pointer: %w", err)
	}
	defer obj.Close()
	id, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read folder pointer: %w", err)
	}
	return string(id), true, nil
}

func (d *MinioDrive) putMeta(ctx context.Context, meta Metadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal folder metadata: %w", err)
	}
	_, err = d.client.PutObject(ctx, d.bucket, metaKey(meta.ID),
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("write folder metadata: %w", err)
	}
	return nil
}

func (d *MinioDrive) putPointer(ctx context.Context, parentID, name, id string) error {
	_, err := d.client.PutObject(ctx, d.bucket, pointerKey(parentID, name),
		bytes.NewReader([]byte(id)), int64(len(id)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		return fmt.Errorf("write folder pointer: %w", err)
	}
	return nil
}

func (d *MinioDrive) readMeta(ctx context.Context, id string) (Metadata, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, metaKey(id), minio.GetObjectOptions{})
	if err != nil {
		return Metadata{}, fmt.Errorf("get folder metadata: %w", err)
	}
	defer obj.Close()
	payload, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return Metadata{}, fmt.Errorf("folder %s: not found", id)
		}
		return Metadata{}, fmt.Errorf("read folder metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return Metadata{}, fmt.Errorf("unmarshal folder metadata: %w", err)
	}
	return meta, nil
}
