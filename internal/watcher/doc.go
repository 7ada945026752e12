// Package watcher keeps an index in step with a Markdown tree on disk.
//
// It watches the root and every non-hidden subdirectory with fsnotify. Any
// change to a .md file (or a directory appearing or vanishing) schedules a
// re-index once the tree has been quiet for the debounce interval. Runs never
// overlap; changes seen during a run schedule one more run after it finishes.
//
//	w, err := watcher.New(root, func(ctx context.Context) error {
//		_, err := a.Index(ctx, root, false)
//		return err
//	}, watcher.Config{Debounce: time.Second})
//	if err != nil {
//		return err
//	}
//	return w.Run(ctx)
package watcher
