package adapter

// DownloadLinker builds the public download URL for a generated document's
// storage key. Implementations attach whatever access token the storage
// front-end requires.
type DownloadLinker interface {
	Link(fileName string) (string, error)
}
