package physics

import "errors"

var (
	// ErrStepResolutionOverrun цикл пошагового движения превысил предел итераций
	ErrStepResolutionOverrun = errors.New("step resolution overrun")
	// ErrOverlapAfterResolution актор остался внутри твёрдого тела после всех коррекций
	ErrOverlapAfterResolution = errors.New("overlap after resolution")
	// ErrInvalidQueryArguments концы отрезка запроса не лежат на одной оси
	ErrInvalidQueryArguments = errors.New("invalid query arguments")
)
