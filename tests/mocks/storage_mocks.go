package mocks

import (
	"io"

	"github.com/stretchr/testify/mock"
)

// MockFileStorage is a testify mock for storage.FileStorage.
type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) Save(filename string, content io.Reader) (string, int64, error) {
	args := m.Called(filename, content)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockFileStorage) Get(filePath string) (io.ReadCloser, error) {
	args := m.Called(filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockFileStorage) Delete(filePath string) error {
	args := m.Called(filePath)
	return args.Error(0)
}
