package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ariefcatur/go-storefront/internal/media"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var uploadChunkMB int64

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload an image to the media host in chunks",
	Long: `Uploads the file in sequential byte-range chunks sharing one upload id
and prints the secure URL of the stored asset.

Requires CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().Int64Var(&uploadChunkMB, "chunk-mb", media.ChunkSize>>20, "Chunk size in MiB")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if cfg.MediaCloudName == "" || cfg.MediaPreset == "" {
		return errors.New("CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET must be set")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}

	up := media.NewUploader(media.Config{
		Endpoint:  cfg.MediaEndpoint,
		CloudName: cfg.MediaCloudName,
		Preset:    cfg.MediaPreset,
		ChunkSize: uploadChunkMB << 20,
	}, &http.Client{}, logger)

	wait := cfg.UploadTimeout
	if timeout > wait {
		wait = timeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), wait)
	defer cancel()

	res, err := up.Upload(ctx, f, st.Size(), filepath.Base(f.Name()))
	if err != nil {
		return fmt.Errorf("upload %s: %w", args[0], err)
	}
	logger.Info("upload complete", zap.String("upload_id", res.UploadID), zap.Int("chunks", res.Chunks), zap.Int64("bytes", res.Bytes))
	fmt.Fprintln(cmd.OutOrStdout(), res.SecureURL)
	return nil
}
