package di_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/odigraph/di"
)

//
// -----------------------------------------------------------------------------
// Lazy
// -----------------------------------------------------------------------------

// TestLazy_ComputesOnce verifies concurrent Get calls share one computation.
func TestLazy_ComputesOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	l := di.NewLazy(func() (any, error) {
		calls.Add(1)
		return "brew", nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get()
			assert.NoError(t, err)
			assert.Equal(t, "brew", v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

// TestLazy_RetriesAfterError verifies a failed computation is not memoized.
func TestLazy_RetriesAfterError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	attempts := 0
	l := di.NewLazy(func() (any, error) {
		attempts++
		if attempts == 1 {
			return nil, boom
		}
		return attempts, nil
	})

	_, err := l.Get()
	require.ErrorIs(t, err, boom)

	v, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	got, err := di.LazyAs[int](l)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

//
// -----------------------------------------------------------------------------
// Provider / Optional
// -----------------------------------------------------------------------------

// TestProvider_CallsEachTime verifies Provider delegates every Get.
func TestProvider_CallsEachTime(t *testing.T) {
	t.Parallel()

	n := 0
	p := di.NewProvider(func() (any, error) {
		n++
		return n, nil
	})
	first, _ := p.Get()
	second, _ := p.Get()
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

// TestOptional verifies present and absent optionals.
func TestOptional(t *testing.T) {
	t.Parallel()

	present := di.Present("milk")
	assert.True(t, present.IsPresent())
	v, ok := present.Get()
	assert.True(t, ok)
	assert.Equal(t, "milk", v)
	assert.Equal(t, "milk", present.OrElse("none"))

	absent := di.Absent()
	assert.False(t, absent.IsPresent())
	assert.Equal(t, "none", absent.OrElse("none"))
	_, err := absent.Value()
	assert.ErrorIs(t, err, di.ErrAbsent)
}

//
// -----------------------------------------------------------------------------
// AssistedFactory / As
// -----------------------------------------------------------------------------

// TestAssistedFactory_Arity verifies the assisted argument count is enforced.
func TestAssistedFactory_Arity(t *testing.T) {
	t.Parallel()

	f := di.NewAssistedFactory("CupFactory", []string{"size"}, func(assisted []any) (any, error) {
		return "cup of " + assisted[0].(string), nil
	})

	v, err := f.Create("tall")
	require.NoError(t, err)
	assert.Equal(t, "cup of tall", v)

	_, err = f.Create()
	var arity di.ArityError
	require.ErrorAs(t, err, &arity)
	assert.EqualError(t, err, `di: factory "CupFactory" takes 1 assisted arguments, got 0`)
}

// TestAs verifies typed conversion errors.
func TestAs(t *testing.T) {
	t.Parallel()

	s, err := di.As[string]("x")
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	_, err = di.As[int]("x")
	var wrong di.WrongTypeError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "int", wrong.Want)
	assert.Equal(t, "string", wrong.GotType)

	assert.Panics(t, func() { di.MustAs[int]("x") })
}
