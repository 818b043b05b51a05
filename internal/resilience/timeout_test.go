// Copyright 2025 Inventory Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWithTimeoutCompletes(t *testing.T) {
	err := WithTimeout(context.Background(), time.Second, zap.NewNop(), func(ctx context.Context) error {
		return nil
	})

	assert.NoError(t, err)
}

func TestWithTimeoutPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")

	err := WithTimeout(context.Background(), time.Second, zap.NewNop(), func(ctx context.Context) error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.False(t, IsTimeout(err))
}

func TestWithTimeoutExpires(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, zap.NewNop(), func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return ctx.Err()
	})

	assert.True(t, IsTimeout(err))

	var serviceErr *ServiceError
	assert.True(t, AsServiceError(err, &serviceErr))
	assert.Equal(t, ErrorCodeTimeout, serviceErr.Code)
}
