package storage

type WorkspaceOption func(*Workspace)

// WithDataDir resolves relative collection paths against dir
func WithDataDir(dir string) WorkspaceOption {
	return func(ws *Workspace) {
		ws.dataDir = dir
	}
}

// WithFormat forces a file format instead of picking one by extension
func WithFormat(format Format) WorkspaceOption {
	return func(ws *Workspace) {
		ws.format = format
	}
}
