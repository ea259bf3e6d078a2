package utils

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"audiofp/models"
)

// GenerateUniqueID returns a random 32-bit ID. Collisions are possible but
// astronomically unlikely at corpus scale; RegisterSong's uniqueness
// constraints on key/externalRef are the real guard, not this ID.
func GenerateUniqueID() uint32 {
	return rand.Uint32()
}

// GenerateSongKey builds the canonical dedup key for a (title, artist) pair.
func GenerateSongKey(title, artist string) string {
	return fmt.Sprintf("%s---%s", title, artist)
}

// CreateFolder creates folderPath and any missing parents.
func CreateFolder(folderPath string) error {
	return os.MkdirAll(folderPath, 0o755)
}

// DeleteFile removes the file or directory at path if it exists.
func DeleteFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(path)
}

// MoveFile renames src to dst, falling back to copy+remove across devices.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return os.Remove(src)
}

// ExtendMap merges src into dst in place.
func ExtendMap(dst, src map[uint32]models.Couple) {
	for k, v := range src {
		dst[k] = v
	}
}

// NameFromPath strips the directory and extension from a file path, used as
// a title fallback when a file carries no tag metadata.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
