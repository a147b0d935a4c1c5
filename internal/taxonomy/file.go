package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile атомарно заменяет файл: запись во временный файл в том же
// каталоге, fsync, rename. Каталог создаётся при отсутствии.
// При любой ошибке прежний файл остаётся нетронутым.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("создание каталога %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("создание временного файла: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("запись временного файла: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync временного файла: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("закрытие временного файла: %w", err)
	}
	// CreateTemp создаёт файл с правами 0600, кэш читают другие процессы
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod временного файла: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("переименование временного файла: %w", err)
	}
	return nil
}
