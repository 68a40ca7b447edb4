package scenario

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrNotFound = errors.New("template not found")
	ErrExists   = errors.New("template already exists")
)

// Store 模板持久化后端
type Store interface {
	// 读取模板，不存在时返回ErrNotFound
	Load(ctx context.Context, id string) (*Template, error)
	// 写入模板，已存在且不允许覆盖时返回ErrExists
	Save(ctx context.Context, t *Template, overwrite bool) error
	// 删除模板，不存在时返回ErrNotFound
	Delete(ctx context.Context, id string) error
	// 全部模板ID（升序）
	IDs(ctx context.Context) ([]string, error)
	// 后端位置描述
	String() string
}

// FileStore 目录存储，每个模板一个<template_id>.json文件
type FileStore struct {
	dir string
}

// NewFileStore 创建目录存储，目录不存在时创建
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Load(_ context.Context, id string) (*Template, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return FromDocument(data)
}

func (s *FileStore) Save(_ context.Context, t *Template, overwrite bool) error {
	p := s.path(t.ID)
	if _, err := os.Stat(p); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrExists, p)
	}
	doc, err := t.ToDocument()
	if err != nil {
		return err
	}
	return os.WriteFile(p, doc, 0o644)
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (s *FileStore) IDs(_ context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *FileStore) String() string {
	return s.dir
}
