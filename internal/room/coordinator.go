// Package room serializes everything that happens to a debate room: player
// commands, turn timeouts and the judge's verdict all pass through the
// coordinator under the room's lock.
package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/argumentor/internal/auth"
	"github.com/jason-s-yu/argumentor/internal/cache"
	"github.com/jason-s-yu/argumentor/internal/debate"
	"github.com/jason-s-yu/argumentor/internal/evaluation"
	"github.com/jason-s-yu/argumentor/internal/judge"
	"github.com/jason-s-yu/argumentor/internal/models"
	"github.com/jason-s-yu/argumentor/internal/store"
	"github.com/jason-s-yu/argumentor/internal/timer"
	"github.com/sirupsen/logrus"
)

// DefaultTimeoutRetry is how long a failed timeout waits before it is tried again.
const DefaultTimeoutRetry = 2 * time.Second

// Options wires a coordinator. Store, Engine, Judge and Seats are required.
type Options struct {
	Store        store.Store
	Engine       *debate.Engine
	Judge        judge.Judge
	JudgeTimeout time.Duration
	Seats        *auth.SeatSigner
	Actions      *cache.ActionLog
	Logger       *logrus.Logger
	// TimeoutRetry is the delay before a timeout that hit a store error is
	// handled again. Zero means DefaultTimeoutRetry.
	TimeoutRetry time.Duration
}

// Coordinator owns the per-room lock, the turn timers and the evaluation trigger.
type Coordinator struct {
	store   store.Store
	engine  *debate.Engine
	seats   *auth.SeatSigner
	actions *cache.ActionLog
	logger  *logrus.Logger

	hub     *Hub
	locks   *keyedMutex
	timers  *timer.Orchestrator
	trigger *evaluation.Trigger

	timeoutRetry time.Duration

	// bgMu orders evaluation launches against Shutdown; no goroutine is
	// added to wg once closed is set. evaluating holds rooms with a judge
	// call in flight.
	bgMu       sync.Mutex
	closed     bool
	evaluating map[string]struct{}

	// background work (timeouts, evaluations) runs under this context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCoordinator(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	retry := opts.TimeoutRetry
	if retry <= 0 {
		retry = DefaultTimeoutRetry
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		store:        opts.Store,
		engine:       opts.Engine,
		seats:        opts.Seats,
		actions:      opts.Actions,
		logger:       logger,
		hub:          NewHub(),
		locks:        newKeyedMutex(),
		timeoutRetry: retry,
		evaluating:   make(map[string]struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	c.timers = timer.New(c.HandleTimeout, logger)
	c.trigger = evaluation.NewTrigger(opts.Store, opts.Judge, c.locks.Lock, logger, opts.JudgeTimeout)
	return c
}

// Hub exposes the room subscriptions.
func (c *Coordinator) Hub() *Hub { return c.hub }

// Timers exposes the turn timer registry.
func (c *Coordinator) Timers() *timer.Orchestrator { return c.timers }

// Dispatch runs one command for p. Failures are reported to p as an error
// event and returned; they never reach other participants.
func (c *Coordinator) Dispatch(ctx context.Context, p *Participant, cmd Command) error {
	var err error
	switch cmd := cmd.(type) {
	case CreateRoom:
		err = c.createRoom(ctx, p, cmd)
	case JoinRoom:
		err = c.joinRoom(ctx, p, cmd)
	case SelectSide:
		err = c.selectSide(ctx, p, cmd)
	case SendMessage:
		err = c.sendMessage(ctx, p, cmd)
	case GetRoomInfo:
		err = c.roomInfo(ctx, p, cmd)
	case LeaveRoom:
		err = c.leaveRoom(p)
	case Resume:
		err = c.resume(ctx, p, cmd)
	case Ping:
		p.Send(Event{Type: EventPong})
	default:
		err = debate.ErrInvalidCommand
	}
	if err != nil {
		c.reportError(p, cmd, err)
	}
	return err
}

func (c *Coordinator) reportError(p *Participant, cmd Command, err error) {
	code, _ := debate.CodeOf(err)
	fields := logrus.Fields{
		"participant": p.ID,
		"room":        p.Seat().RoomCode,
		"code":        code,
	}
	if cmd != nil {
		fields["command"] = cmd.commandType()
	}
	entry := c.logger.WithFields(fields)
	if code == debate.CodeInternal {
		entry.WithError(err).Error("command failed")
	} else {
		entry.Debug("command rejected")
	}
	p.Send(ErrorEvent(err))
}

// load maps store misses to the client-facing not-found error.
func (c *Coordinator) load(ctx context.Context, roomCode string) (models.Debate, error) {
	d, err := c.store.Get(ctx, roomCode)
	if errors.Is(err, store.ErrNotFound) {
		return models.Debate{}, debate.ErrRoomNotFound
	}
	if err != nil {
		return models.Debate{}, fmt.Errorf("load debate %s: %w", roomCode, err)
	}
	return *d, nil
}

func (c *Coordinator) createRoom(ctx context.Context, p *Participant, cmd CreateRoom) error {
	code, err := debate.GenerateRoomCode(ctx, c.store.Exists)
	if err != nil {
		return fmt.Errorf("generate room code: %w", err)
	}
	d, err := c.engine.Create(code, cmd.Topic, cmd.TopicSideA, cmd.TopicSideB, p.Name)
	if err != nil {
		return err
	}
	token, err := c.seats.CreateSeatToken(auth.Seat{RoomCode: code, Side: models.SideA, Name: d.SideAName})
	if err != nil {
		return fmt.Errorf("sign seat token: %w", err)
	}

	unlock := c.locks.Lock(code)
	defer unlock()
	if err := c.store.Put(ctx, d); err != nil {
		return fmt.Errorf("persist debate %s: %w", code, err)
	}
	c.seat(p, debate.Seat{RoomCode: code, Side: models.SideA})
	p.Send(Event{Type: EventDebateCreated, Payload: createdPayload{RoomCode: code, Debate: d, SeatToken: token}})
	c.record(ctx, d, "create", models.SideA, map[string]any{"topic": d.Topic})

	c.logger.WithFields(logrus.Fields{"room": code, "participant": p.ID}).Info("debate created")
	return nil
}

func (c *Coordinator) joinRoom(ctx context.Context, p *Participant, cmd JoinRoom) error {
	code, err := debate.NormalizeRoomCode(cmd.RoomCode)
	if err != nil {
		return err
	}

	unlock := c.locks.Lock(code)
	defer unlock()

	d, err := c.load(ctx, code)
	if err != nil {
		return err
	}
	next, err := c.engine.Join(d, p.Name)
	if err != nil {
		return err
	}
	token, err := c.seats.CreateSeatToken(auth.Seat{RoomCode: code, Side: models.SideB, Name: next.SideBName})
	if err != nil {
		return fmt.Errorf("sign seat token: %w", err)
	}
	if err := c.store.Put(ctx, next); err != nil {
		return fmt.Errorf("persist debate %s: %w", code, err)
	}

	c.seat(p, debate.Seat{RoomCode: code, Side: models.SideB})
	p.Send(Event{Type: EventDebateJoined, Payload: joinedPayload{Side: models.SideB, Debate: next, SeatToken: token}})
	c.hub.Broadcast(code, debateEvent(EventDebateInfo, next))
	if next.Status == models.StatusActive {
		c.hub.Broadcast(code, debateEvent(EventDebateStarted, next))
		c.hub.Broadcast(code, turnEvent(next))
	}
	c.syncTimer(next)
	c.record(ctx, next, "join", models.SideB, nil)

	c.logger.WithFields(logrus.Fields{"room": code, "participant": p.ID, "status": next.Status}).Info("debater joined")
	return nil
}

func (c *Coordinator) selectSide(ctx context.Context, p *Participant, cmd SelectSide) error {
	seat := p.Seat()
	code := seat.RoomCode
	if cmd.RoomCode != "" {
		var err error
		if code, err = debate.NormalizeRoomCode(cmd.RoomCode); err != nil {
			return err
		}
	}
	if !seat.Seated() || seat.RoomCode != code {
		return debate.ErrNotInDebate
	}

	unlock := c.locks.Lock(code)
	defer unlock()

	d, err := c.load(ctx, code)
	if err != nil {
		return err
	}
	next, err := c.engine.SelectSide(d, cmd.Choice)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, next); err != nil {
		return fmt.Errorf("persist debate %s: %w", code, err)
	}

	c.hub.Broadcast(code, debateEvent(EventDebateStarted, next))
	c.hub.Broadcast(code, turnEvent(next))
	c.syncTimer(next)
	c.record(ctx, next, "select_side", seat.Side, map[string]any{"choice": cmd.Choice})
	return nil
}

func (c *Coordinator) sendMessage(ctx context.Context, p *Participant, cmd SendMessage) error {
	seat := p.Seat()
	maxLen := c.engine.Rules.MaxMessageLength
	if err := debate.ValidateSeat(seat, cmd.Content, maxLen); err != nil {
		return err
	}

	unlock := c.locks.Lock(seat.RoomCode)
	defer unlock()

	d, err := c.load(ctx, seat.RoomCode)
	if err != nil {
		return err
	}
	if err := debate.ValidateMessage(&d, seat, cmd.Content, maxLen); err != nil {
		return err
	}
	next, msg := c.engine.ApplyMessage(d, seat.Side, cmd.Content)
	if err := c.store.Put(ctx, next); err != nil {
		return fmt.Errorf("persist debate %s: %w", seat.RoomCode, err)
	}

	p.Send(Event{Type: EventMessageSent, Payload: messageSentPayload{MessageID: msg.ID, Timestamp: msg.Timestamp}})
	c.hub.Broadcast(seat.RoomCode, Event{Type: EventNewMessage, Payload: newMessagePayload{Message: msg}})
	c.afterTurn(ctx, next, "message", seat.Side, map[string]any{"messageId": msg.ID})
	return nil
}

func (c *Coordinator) roomInfo(ctx context.Context, p *Participant, cmd GetRoomInfo) error {
	raw := cmd.RoomCode
	if raw == "" {
		raw = p.Seat().RoomCode
	}
	d, err := c.Info(ctx, raw)
	if err != nil {
		return err
	}
	p.Send(debateEvent(EventDebateInfo, d))
	return nil
}

// Info returns the current snapshot of a room. It takes no lock.
func (c *Coordinator) Info(ctx context.Context, rawCode string) (models.Debate, error) {
	code, err := debate.NormalizeRoomCode(rawCode)
	if err != nil {
		return models.Debate{}, err
	}
	d, err := c.load(ctx, code)
	if err != nil {
		return models.Debate{}, err
	}
	// A finished debate whose judge call failed earlier gets another attempt.
	if d.Status == models.StatusEnded && d.Evaluation == nil {
		c.startEvaluation(code)
	}
	return d, nil
}

// leaveRoom drops the membership only. The turn keeps running; an absent
// debater loses arguments through timeouts. Leaving without a seat does nothing.
func (c *Coordinator) leaveRoom(p *Participant) error {
	seat := p.Seat()
	if !seat.Seated() {
		return nil
	}
	c.hub.Leave(seat.RoomCode, p)
	p.setSeat(debate.Seat{})
	p.Send(Event{Type: EventDebateLeft, Payload: leftPayload{RoomCode: seat.RoomCode}})
	c.logger.WithFields(logrus.Fields{"room": seat.RoomCode, "participant": p.ID}).Info("debater left")
	return nil
}

// Disconnect is called when p's connection goes away. Like leave, it does not
// touch the debate.
func (c *Coordinator) Disconnect(p *Participant) {
	if seat := p.Seat(); seat.RoomCode != "" {
		c.hub.Leave(seat.RoomCode, p)
	}
}

func (c *Coordinator) resume(ctx context.Context, p *Participant, cmd Resume) error {
	claims, err := c.seats.ParseSeatToken(cmd.SeatToken)
	if err != nil {
		return fmt.Errorf("%w: %v", debate.ErrInvalidSeat, err)
	}
	d, err := c.load(ctx, claims.RoomCode)
	if err != nil {
		return err
	}
	joined := d.SideAJoined
	if claims.Side == models.SideB {
		joined = d.SideBJoined
	}
	if !joined {
		return debate.ErrInvalidSeat
	}
	if claims.Name != "" && p.Name == "" {
		p.Name = claims.Name
	}
	c.seat(p, debate.Seat{RoomCode: claims.RoomCode, Side: claims.Side})
	p.Send(debateEvent(EventDebateInfo, d))
	c.logger.WithFields(logrus.Fields{"room": claims.RoomCode, "participant": p.ID, "side": claims.Side}).Info("debater resumed")
	return nil
}

// seat moves p into the room, leaving any room it was in before.
func (c *Coordinator) seat(p *Participant, s debate.Seat) {
	if prev := p.Seat(); prev.RoomCode != "" && prev.RoomCode != s.RoomCode {
		c.hub.Leave(prev.RoomCode, p)
	}
	p.setSeat(s)
	c.hub.Join(s.RoomCode, p)
}

// HandleTimeout applies a lapsed turn. deadline is the turn end the timer was
// armed for; if the room has since moved to another turn the call is a no-op.
// A store failure schedules another attempt for the same deadline.
func (c *Coordinator) HandleTimeout(roomCode string, deadline time.Time) {
	ctx := c.ctx
	if ctx.Err() != nil {
		return
	}
	log := c.logger.WithField("room", roomCode)

	unlock := c.locks.Lock(roomCode)
	defer unlock()

	d, err := c.load(ctx, roomCode)
	if err != nil {
		if errors.Is(err, debate.ErrRoomNotFound) {
			log.Debug("timeout for a room that no longer exists")
		} else {
			log.WithError(err).Error("failed to load debate on timeout; retrying")
			c.timers.Retry(roomCode, deadline, c.timeoutRetry)
		}
		return
	}
	if d.TurnEndsAt == nil || !d.TurnEndsAt.Equal(deadline) {
		log.Debug("stale timeout ignored")
		return
	}
	speaker := d.Turn()
	next, changed := c.engine.ApplyTimeout(d)
	if !changed {
		return
	}
	if err := c.store.Put(ctx, next); err != nil {
		log.WithError(err).Error("failed to persist timeout; retrying")
		c.timers.Retry(roomCode, deadline, c.timeoutRetry)
		return
	}
	log.WithFields(logrus.Fields{"side": speaker, "status": next.Status}).Info("turn timed out")
	c.afterTurn(ctx, next, "timeout", speaker, nil)
}

// afterTurn publishes the result of a message or timeout. Assumes the room lock is held.
func (c *Coordinator) afterTurn(ctx context.Context, d models.Debate, action string, side models.Side, payload map[string]any) {
	c.hub.Broadcast(d.RoomCode, argumentsEvent(d))
	c.hub.Broadcast(d.RoomCode, turnEvent(d))
	if d.Status == models.StatusEnded {
		c.hub.Broadcast(d.RoomCode, debateEvent(EventDebateEnded, d))
	}
	c.syncTimer(d)
	c.record(ctx, d, action, side, payload)
	if d.Status == models.StatusEnded {
		c.startEvaluation(d.RoomCode)
	}
}

// syncTimer makes the registry match the snapshot: armed at turnEndsAt while
// ACTIVE, empty otherwise.
func (c *Coordinator) syncTimer(d models.Debate) {
	if d.Status == models.StatusActive && d.TurnEndsAt != nil {
		c.timers.Arm(d.RoomCode, *d.TurnEndsAt)
		return
	}
	c.timers.Disarm(d.RoomCode)
}

// startEvaluation runs the judge in the background. It must not wait on the
// room lock, so it is safe to call while holding it.
func (c *Coordinator) startEvaluation(roomCode string) {
	c.bgMu.Lock()
	defer c.bgMu.Unlock()
	if c.closed {
		return
	}
	if _, ok := c.evaluating[roomCode]; ok {
		return
	}
	c.evaluating[roomCode] = struct{}{}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.bgMu.Lock()
			delete(c.evaluating, roomCode)
			c.bgMu.Unlock()
		}()
		c.evaluate(roomCode)
	}()
}

func (c *Coordinator) evaluate(roomCode string) {
	log := c.logger.WithField("room", roomCode)
	d, err := c.trigger.Evaluate(c.ctx, roomCode)
	switch {
	case errors.Is(err, evaluation.ErrAlreadyEvaluated), errors.Is(err, evaluation.ErrNotReady):
		log.WithError(err).Debug("evaluation skipped")
		return
	case err != nil:
		log.WithError(err).Warn("evaluation failed; retried on the next info request or resume")
		return
	}

	unlock := c.locks.Lock(roomCode)
	defer unlock()
	c.hub.Broadcast(roomCode, Event{Type: EventEvaluationReady, Payload: evaluationPayload{Evaluation: *d.Evaluation}})
	c.hub.Broadcast(roomCode, debateEvent(EventDebateInfo, d))
	winner := ""
	if d.Evaluation.Winner != nil {
		winner = string(*d.Evaluation.Winner)
	}
	c.record(c.ctx, d, "evaluation", "", map[string]any{"winner": winner})
}

// Resume restores background work after a restart: ACTIVE rooms get their
// timer back at the persisted deadline and ENDED rooms are sent to the judge.
func (c *Coordinator) Resume(ctx context.Context) error {
	codes, err := c.store.Codes(ctx)
	if err != nil {
		return fmt.Errorf("list debates: %w", err)
	}
	var armed, pending int
	for _, code := range codes {
		d, err := c.store.Get(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			c.logger.WithError(err).WithField("room", code).Warn("skipping unreadable debate on resume")
			continue
		}
		switch {
		case d.Status == models.StatusActive && d.TurnEndsAt != nil:
			c.timers.Arm(code, *d.TurnEndsAt)
			armed++
		case d.Status == models.StatusEnded && d.Evaluation == nil:
			c.startEvaluation(code)
			pending++
		}
	}
	c.logger.WithFields(logrus.Fields{"rooms": len(codes), "armed": armed, "evaluating": pending}).Info("resumed debates")
	return nil
}

// Shutdown stops every timer and waits for in-flight evaluations to give up.
// Interrupted evaluations leave their debates ENDED for the next Resume.
func (c *Coordinator) Shutdown() {
	c.timers.Stop()
	c.bgMu.Lock()
	c.closed = true
	c.bgMu.Unlock()
	c.cancel()
	c.wg.Wait()
}

// Wait blocks until background evaluations finish. Used by tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) record(ctx context.Context, d models.Debate, action string, side models.Side, payload map[string]any) {
	if c.actions == nil {
		return
	}
	rec := cache.ActionRecord{
		RoomCode:   d.RoomCode,
		ActionType: action,
		Side:       string(side),
		Payload:    payload,
	}
	if err := c.actions.Publish(ctx, rec); err != nil {
		c.logger.WithError(err).WithField("room", d.RoomCode).Warn("failed to publish action")
	}
}
