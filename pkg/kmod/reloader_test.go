// SPDX-License-Identifier: Apache-2.0

package kmod

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestReloader_Reload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockOps := NewMockmoduleOperations(ctrl)
	reloader := NewReloader(withOperations(mockOps))

	t.Run("should unload and load when module is loaded", func(t *testing.T) {
		mockOps.EXPECT().depmod(gomock.Any()).Return(nil)
		mockOps.EXPECT().isLoaded("hp_wmi").Return(true, nil)
		mockOps.EXPECT().unload("hp_wmi").Return(nil)
		mockOps.EXPECT().load("hp_wmi").Return(nil)

		outcome, err := reloader.Reload(ctx, "hp_wmi")
		assert.NoError(t, err)
		assert.Equal(t, OutcomeReloaded, outcome)
	})

	t.Run("should only load when module is not loaded", func(t *testing.T) {
		mockOps.EXPECT().depmod(gomock.Any()).Return(nil)
		mockOps.EXPECT().isLoaded("hp_wmi").Return(false, nil)
		mockOps.EXPECT().load("hp_wmi").Return(nil)

		outcome, err := reloader.Reload(ctx, "hp_wmi")
		assert.NoError(t, err)
		assert.Equal(t, OutcomeReloaded, outcome)
	})

	t.Run("should skip without error when module is busy", func(t *testing.T) {
		mockOps.EXPECT().depmod(gomock.Any()).Return(nil)
		mockOps.EXPECT().isLoaded("hp_wmi").Return(true, nil)
		mockOps.EXPECT().unload("hp_wmi").Return(unix.EBUSY)

		outcome, err := reloader.Reload(ctx, "hp_wmi")
		assert.NoError(t, err)
		assert.Equal(t, OutcomeSkippedBusy, outcome)
	})

	t.Run("should still run depmod when the swap is later skipped", func(t *testing.T) {
		// ordering matters: depmod must have happened before unload is attempted
		gomock.InOrder(
			mockOps.EXPECT().depmod(gomock.Any()).Return(nil),
			mockOps.EXPECT().isLoaded("hp_wmi").Return(true, nil),
			mockOps.EXPECT().unload("hp_wmi").Return(unix.EBUSY),
		)

		outcome, err := reloader.Reload(ctx, "hp_wmi")
		assert.NoError(t, err)
		assert.Equal(t, OutcomeSkippedBusy, outcome)
	})

	t.Run("should fail when depmod fails", func(t *testing.T) {
		mockOps.EXPECT().depmod(gomock.Any()).Return(errors.New("exit status 1"))

		_, err := reloader.Reload(ctx, "hp_wmi")
		assert.Error(t, err)
		assert.True(t, errorx.IsOfType(err, DepmodError))
	})

	t.Run("should fail with distinct error when load fails after unload", func(t *testing.T) {
		mockOps.EXPECT().depmod(gomock.Any()).Return(nil)
		mockOps.EXPECT().isLoaded("hp_wmi").Return(true, nil)
		mockOps.EXPECT().unload("hp_wmi").Return(nil)
		mockOps.EXPECT().load("hp_wmi").Return(errors.New("invalid module format"))

		_, err := reloader.Reload(ctx, "hp_wmi")
		assert.Error(t, err)
		assert.True(t, errorx.IsOfType(err, LoadAfterUnloadError))
	})

	t.Run("should fail with plain load error when module was not loaded", func(t *testing.T) {
		mockOps.EXPECT().depmod(gomock.Any()).Return(nil)
		mockOps.EXPECT().isLoaded("hp_wmi").Return(false, nil)
		mockOps.EXPECT().load("hp_wmi").Return(errors.New("invalid module format"))

		_, err := reloader.Reload(ctx, "hp_wmi")
		assert.Error(t, err)
		assert.True(t, errorx.IsOfType(err, LoadError))
		assert.False(t, errorx.IsOfType(err, LoadAfterUnloadError))
	})

	t.Run("should fail when unload fails for a non-busy reason", func(t *testing.T) {
		mockOps.EXPECT().depmod(gomock.Any()).Return(nil)
		mockOps.EXPECT().isLoaded("hp_wmi").Return(true, nil)
		mockOps.EXPECT().unload("hp_wmi").Return(errors.New("operation not permitted"))

		_, err := reloader.Reload(ctx, "hp_wmi")
		assert.Error(t, err)
		assert.True(t, errorx.IsOfType(err, UnloadError))
	})
}
