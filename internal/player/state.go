package player

// State состояние автомата игрока
type State int

const (
	Idle State = iota
	Walk       // зарезервировано: ходьба сведена к Idle/Jump
	Jump
	Glove
	GloveHang
)

var stateNames = [...]string{"Idle", "Walk", "Jump", "Glove", "GloveHang"}

func (s State) String() string {
	if s < Idle || s > GloveHang {
		return "Unknown"
	}
	return stateNames[s]
}

// MarshalText для JSON и логов
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// stateHandler поведение состояния: вход, кадр, выход.
// Update возвращает состояние, в котором игрок должен оказаться после кадра.
type stateHandler interface {
	Enter(p *Player)
	Update(p *Player) State
	Exit(p *Player)
}

// normalState общая обычная локомоция для Idle, Walk и Jump
type normalState struct{}

func (normalState) Enter(*Player) {}

func (normalState) Update(p *Player) State {
	p.handleJump()
	p.handleForward()
	p.calculateX()
	p.calculateY()

	p.actor.MoveY(p.velocity.Y / frameRate)
	p.actor.MoveX(p.velocity.X / frameRate)
	p.updateRiding()
	return p.state
}

func (normalState) Exit(*Player) {}

// gloveState рывок захвата к якорю
type gloveState struct{}

func (gloveState) Enter(p *Player) {
	p.actor.ResetRemainders()
}

func (gloveState) Update(p *Player) State {
	p.updateGlove()
	return p.state
}

func (gloveState) Exit(p *Player) {
	p.glove = nil
}

// hangState висение на якоре
type hangState struct{}

func (hangState) Enter(p *Player) {
	p.actor.ResetRemainders()
}

func (hangState) Update(p *Player) State {
	p.updateHang()
	return p.state
}

func (hangState) Exit(p *Player) {
	p.hang = nil
}
