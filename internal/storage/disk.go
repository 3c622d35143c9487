package storage

import "os"

// The records database runs in WAL mode, so recent writes live in sidecar
// files next to the database until a checkpoint folds them in.
var sqliteSidecarSuffixes = []string{"-wal", "-shm"}

// DiskUsageBytes returns the combined on-disk size of the given artifacts,
// typically the records database and the embeddings blob. Both are plain
// files; paths that do not exist yet contribute zero. Database sidecars are
// included when present.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		n, err := fileSize(p)
		if err != nil {
			return 0, err
		}
		total += n
		for _, suffix := range sqliteSidecarSuffixes {
			n, err := fileSize(p + suffix)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	if info.IsDir() {
		return 0, nil
	}
	return info.Size(), nil
}
