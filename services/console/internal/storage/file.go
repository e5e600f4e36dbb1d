package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"NexusPlatform/pkg/logger"
)

// StateFileName имя файла состояния в каталоге хранилища
const StateFileName = "state.json"

// FileStorage хранит все ключи одним JSON документом.
// Каждая запись переписывает документ целиком через временный файл и rename,
// поэтому параллельно работающие процессы видят либо старое, либо новое состояние.
type FileStorage struct {
	path   string
	logger logger.Logger
	mu     sync.Mutex
}

// NewFileStorage создает хранилище в каталоге dir (создается с правами 0700)
func NewFileStorage(dir string, log logger.Logger) (*FileStorage, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("no se pudo obtener el directorio personal: %w", err)
		}
		dir = filepath.Join(home, ".nexus")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("error al crear el directorio %s: %w", dir, err)
	}

	return &FileStorage{
		path:   filepath.Join(dir, StateFileName),
		logger: log,
	}, nil
}

// Path возвращает путь к файлу состояния
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error al leer el archivo de estado: %w", err)
	}

	state := make(map[string]string)
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("error al deserializar el archivo de estado: %w", err)
	}
	return state, nil
}

func (f *FileStorage) save(state map[string]string) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("error al serializar el estado: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("error al crear el archivo temporal: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error al escribir el estado: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error al establecer permisos: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error al escribir el estado: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error al guardar el estado: %w", err)
	}
	return nil
}

// Get возвращает значение ключа
func (f *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := state[key]
	return v, ok, nil
}

// Set сохраняет значение
func (f *FileStorage) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return err
	}
	state[key] = value
	return f.save(state)
}

// Delete удаляет ключи одной перезаписью файла
func (f *FileStorage) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return err
	}

	changed := false
	for _, key := range keys {
		if _, ok := state[key]; ok {
			delete(state, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}

	f.logger.Debug("state keys removed", logger.Strings("keys", keys), logger.String("path", f.path))
	return f.save(state)
}

// Ping проверяет, что файл состояния читается
func (f *FileStorage) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.load()
	return err
}
