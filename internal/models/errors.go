package models

import "errors"

var (
	// ErrInsufficientData — свечей меньше, чем нужно самому медленному индикатору.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDataSource — биржа не отдала свечи.
	ErrDataSource = errors.New("data source error")
	// ErrDispatch — не удалось доставить алерт.
	ErrDispatch = errors.New("dispatch error")
	// ErrPersistence — ошибка чтения/записи хранилища алертов.
	ErrPersistence = errors.New("persistence error")
	// ErrPaused — сканер выключен командой /stop.
	ErrPaused = errors.New("scanner paused")
)
