// ABOUTME: Azure Blob Storage backend built on the azblob SDK
// ABOUTME: Containers are created lazily on first write and remembered per process
package blobstore

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// Azure is a Store backed by an Azure storage account
type Azure struct {
	client *azblob.Client
	// containers already known to exist
	ready sync.Map
}

// OpenAzure connects using a storage account connection string
func OpenAzure(connectionString string) (*Azure, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return &Azure{client: client}, nil
}

func (a *Azure) ensureContainer(ctx context.Context, container string) error {
	if _, ok := a.ready.Load(container); ok {
		return nil
	}
	_, err := a.client.CreateContainer(ctx, container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to create container %s: %w", container, err)
	}
	a.ready.Store(container, struct{}{})
	return nil
}

func (a *Azure) Put(ctx context.Context, container, key string, data []byte) error {
	if err := validate(container, key); err != nil {
		return err
	}
	if err := a.ensureContainer(ctx, container); err != nil {
		return err
	}
	if _, err := a.client.UploadBuffer(ctx, container, key, data, nil); err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", container, key, err)
	}
	return nil
}

func (a *Azure) Get(ctx context.Context, container, key string) ([]byte, error) {
	if err := validate(container, key); err != nil {
		return nil, err
	}
	resp, err := a.client.DownloadStream(ctx, container, key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download %s/%s: %w", container, key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", container, key, err)
	}
	return data, nil
}

// List pages through the container lazily; a missing container lists as empty
func (a *Azure) List(ctx context.Context, container, prefix string) iter.Seq2[string, error] {
	if err := validateContainer(container); err != nil {
		return fail(err)
	}
	return func(yield func(string, error) bool) {
		opts := &azblob.ListBlobsFlatOptions{}
		if prefix != "" {
			opts.Prefix = &prefix
		}
		pager := a.client.NewListBlobsFlatPager(container, opts)
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if bloberror.HasCode(err, bloberror.ContainerNotFound) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("failed to list %s: %w", container, err))
				return
			}
			for _, item := range page.Segment.BlobItems {
				if item.Name == nil {
					continue
				}
				if !yield(*item.Name, nil) {
					return
				}
			}
		}
	}
}

func (a *Azure) Delete(ctx context.Context, container, key string) error {
	if err := validate(container, key); err != nil {
		return err
	}
	_, err := a.client.DeleteBlob(ctx, container, key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", container, key, err)
	}
	return nil
}
