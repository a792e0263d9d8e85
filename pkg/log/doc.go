// Package log provides a logging abstraction for cfghist components.
//
// The configuration-file coordinator, the history manager and the source
// watcher log through the Logger interface. A zerolog implementation and a
// no-op implementation are provided.
//
// # Usage
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	cf, err := configfile.New(cfg, configfile.WithLogger(logger))
//
// Child loggers carry fixed fields:
//
//	hlog := logger.With(log.String("history_dir", dir))
package log
