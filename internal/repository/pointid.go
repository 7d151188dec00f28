package repository

import "github.com/google/uuid"

// DeterministicPointID derives a stable UUID for a scene within a
// collection. The same (sceneID, collection) pair always maps to the same
// point, which is what turns re-ingest into an in-place overwrite instead of
// accumulating duplicates.
func DeterministicPointID(sceneID, collection string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(collection+":"+sceneID)).String()
}
