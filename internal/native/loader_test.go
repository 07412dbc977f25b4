package native_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/tieraccel/internal/errors"
	"github.com/agbru/tieraccel/internal/native"
	"github.com/agbru/tieraccel/internal/native/mocks"
)

func TestLoaderMemoizesConcurrentFirstLoad(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockRuntime(ctrl)
	mod := mocks.NewMockModule(ctrl)
	mod.EXPECT().Name().Return("mock").AnyTimes()
	rt.EXPECT().LoadModule(gomock.Any()).Return(mod, nil).Times(1)

	l := native.NewLoader(rt)
	assert.False(t, l.Resolved())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := l.Load(context.Background())
			assert.NoError(t, err)
			assert.Same(t, mod, m)
		}()
	}
	wg.Wait()

	assert.True(t, l.Resolved())
	assert.False(t, l.Unavailable())
}

func TestLoaderNilModuleMeansUnavailable(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockRuntime(ctrl)
	rt.EXPECT().LoadModule(gomock.Any()).Return(nil, nil).Times(1)

	l := native.NewLoader(rt)
	for i := 0; i < 3; i++ {
		m, err := l.Load(context.Background())
		assert.Nil(t, m)
		var capErr *apperrors.CapabilityError
		require.ErrorAs(t, err, &capErr)
		assert.ErrorIs(t, err, native.ErrUnavailable)
	}
	assert.True(t, l.Unavailable())
}

func TestLoaderLoadErrorIsCached(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockRuntime(ctrl)
	boom := errors.New("corrupt module")
	rt.EXPECT().LoadModule(gomock.Any()).Return(nil, boom).Times(1)

	l := native.NewLoader(rt)
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = l.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, apperrors.IsRecoverable(err))
}

func TestLoaderPanicIsContained(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockRuntime(ctrl)
	rt.EXPECT().LoadModule(gomock.Any()).DoAndReturn(func(context.Context) (native.Module, error) {
		panic("loader exploded")
	})

	l := native.NewLoader(rt)
	m, err := l.Load(context.Background())
	assert.Nil(t, m)
	assert.Error(t, err)
	assert.True(t, l.Unavailable())
}

func TestLoaderDoesNotCacheCancellation(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockRuntime(ctrl)
	mod := mocks.NewMockModule(ctrl)
	mod.EXPECT().Name().Return("mock").AnyTimes()
	gomock.InOrder(
		rt.EXPECT().LoadModule(gomock.Any()).Return(nil, context.Canceled),
		rt.EXPECT().LoadModule(gomock.Any()).Return(mod, nil),
	)

	l := native.NewLoader(rt)
	_, err := l.Load(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, l.Resolved())

	m, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, mod, m)
}

func TestLoaderReloadClosesPrevious(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockRuntime(ctrl)
	first := mocks.NewMockModule(ctrl)
	second := mocks.NewMockModule(ctrl)
	first.EXPECT().Name().Return("first").AnyTimes()
	second.EXPECT().Name().Return("second").AnyTimes()
	first.EXPECT().Close(gomock.Any()).Return(nil).Times(1)
	gomock.InOrder(
		rt.EXPECT().LoadModule(gomock.Any()).Return(first, nil),
		rt.EXPECT().LoadModule(gomock.Any()).Return(second, nil),
	)

	l := native.NewLoader(rt)
	m, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, m)

	m, err = l.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, second, m)
}

func TestLoaderFeatureProbe(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockRuntime(ctrl)
	rt.EXPECT().IsFeatureSupported(native.FeatureAVX2).Return(true)
	rt.EXPECT().IsFeatureSupported(native.FeatureNEON).DoAndReturn(func(native.Feature) bool {
		panic("probe failed")
	})

	l := native.NewLoader(rt)
	assert.True(t, l.IsFeatureSupported(native.FeatureAVX2))
	assert.False(t, l.IsFeatureSupported(native.FeatureNEON))
}

func TestCallHelpers(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	mod := mocks.NewMockModule(ctrl)
	mod.EXPECT().Name().Return("mock").AnyTimes()
	mod.EXPECT().Lookup("missing").Return(nil, false)
	mod.EXPECT().Lookup("pair").Return(func(context.Context, ...[]float64) ([]float64, error) {
		return []float64{1, 2}, nil
	}, true)

	_, err := native.Call(context.Background(), mod, "missing")
	assert.ErrorIs(t, err, native.ErrEntryPointMissing)

	_, err = native.CallScalar(context.Background(), mod, "pair")
	assert.ErrorIs(t, err, native.ErrMalformedResult)

	_, err = native.Call(context.Background(), nil, "anything")
	assert.ErrorIs(t, err, native.ErrUnavailable)
}

func TestUnavailableRuntime(t *testing.T) {
	t.Parallel()
	rt := native.Unavailable()
	m, err := rt.LoadModule(context.Background())
	assert.Nil(t, m)
	assert.NoError(t, err)
	assert.False(t, rt.IsFeatureSupported(native.FeatureSIMD))

	l := native.NewLoader(nil)
	_, err = l.Load(context.Background())
	assert.Error(t, err)
	assert.True(t, l.Unavailable())
}

func TestLoaderSetLoggerDuringLoad(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	rt := mocks.NewMockRuntime(ctrl)
	rt.EXPECT().LoadModule(gomock.Any()).Return(nil, nil).AnyTimes()

	l := native.NewLoader(rt)
	var buf bytes.Buffer
	logger := zerolog.New(zerolog.SyncWriter(&buf))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l.SetLogger(logger)
		}()
		go func() {
			defer wg.Done()
			_, _ = l.Reload(context.Background())
		}()
	}
	wg.Wait()

	l.SetLogger(logger)
	_, err := l.Reload(context.Background())
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "native module unavailable")
}
