package game

import (
	"context"
	"errors"
	"fmt"

	"story-cards/internal/db"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MinPlayers         = 3
	MaxPlayers         = 8
	DefaultTargetScore = 30
	minTargetScore     = 10
	maxTargetScore     = 100
	maxHandSize        = 12
	maxCodeAttempts    = 10
)

type RoomSettings struct {
	Name        string
	Capacity    int
	TargetScore int
	HandSize    int
}

// CreateRoom opens a WAITING room with the actor seated as host and returns its join code.
func (e *Engine) CreateRoom(ctx context.Context, actor Actor, settings RoomSettings) (string, error) {
	if err := actor.validate(); err != nil {
		return "", err
	}
	hostName, err := ValidateDisplayName(actor.Name)
	if err != nil {
		return "", err
	}
	name, err := validateRoomName(settings.Name)
	if err != nil {
		return "", err
	}
	capacity := MaxPlayers
	if settings.Capacity != 0 {
		capacity = clamp(settings.Capacity, MinPlayers, MaxPlayers)
	}
	target := DefaultTargetScore
	if settings.TargetScore != 0 {
		target = clamp(settings.TargetScore, minTargetScore, maxTargetScore)
	}
	handSize := e.handSize
	if settings.HandSize > 0 {
		handSize = clamp(settings.HandSize, 1, maxHandSize)
	}

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return "", err
		}
		now := e.now()
		err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			room := db.Room{
				Code:           code,
				Name:           name,
				Status:         db.RoomWaiting,
				HostIdentityID: actor.ID,
				Capacity:       capacity,
				TargetScore:    target,
				HandSize:       handSize,
				DeckCardIDs:    datatypes.JSONSlice[string]{},
			}
			if err := tx.Create(&room).Error; err != nil {
				return err
			}
			host := db.Participant{
				RoomID:      room.ID,
				IdentityID:  actor.ID,
				DisplayName: hostName,
				Ready:       true,
				Online:      true,
				Seat:        0,
				HandCardIDs: datatypes.JSONSlice[string]{},
				JoinedAt:    now,
				LastSeenAt:  now,
			}
			if err := tx.Create(&host).Error; err != nil {
				return err
			}
			return recordEvent(tx, &room, eventRef{participant: uintRef(host.ID)}, eventRoomCreated, EventPayload{
				PlayerName: hostName,
				Count:      capacity,
			})
		})
		if err == nil {
			e.log.Info("room created",
				zap.String("room", code),
				zap.String("host", actor.ID),
				zap.Int("capacity", capacity),
				zap.Int("target_score", target),
			)
			return code, nil
		}
		if !isUniqueViolation(err) && !isRetryable(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: could not allocate a join code: %v", ErrTransientConflict, lastErr)
}

// Join seats the actor in a WAITING room. Joining a room the actor already belongs to is a no-op
// in any status.
func (e *Engine) Join(ctx context.Context, code string, actor Actor) error {
	if err := actor.validate(); err != nil {
		return err
	}
	name, err := ValidateDisplayName(actor.Name)
	if err != nil {
		return err
	}
	return e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		existing, err := findMember(tx, room.ID, actor.ID)
		if err != nil {
			return err
		}
		now := e.now()
		if existing != nil {
			return tx.Model(existing).Updates(map[string]any{"online": true, "last_seen_at": now}).Error
		}
		if room.Status != db.RoomWaiting {
			return fmt.Errorf("%w: room is %s", ErrAlreadyStarted, room.Status)
		}
		participants, err := lockParticipants(tx, room.ID)
		if err != nil {
			return err
		}
		if len(participants) >= room.Capacity {
			return fmt.Errorf("%w: %d/%d seats taken", ErrRoomFull, len(participants), room.Capacity)
		}
		seat := 0
		if len(participants) > 0 {
			seat = participants[len(participants)-1].Seat + 1
		}
		member := db.Participant{
			RoomID:      room.ID,
			IdentityID:  actor.ID,
			DisplayName: name,
			Online:      true,
			Seat:        seat,
			HandCardIDs: datatypes.JSONSlice[string]{},
			JoinedAt:    now,
			LastSeenAt:  now,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		e.log.Info("player joined", zap.String("room", room.Code), zap.String("player", name), zap.Int("seat", seat))
		return recordEvent(tx, room, eventRef{participant: uintRef(member.ID)}, eventPlayerJoined, EventPayload{
			PlayerName: name,
			Count:      len(participants) + 1,
		})
	})
}

// SetReady toggles the actor's ready flag and returns the new value. The host is always ready.
func (e *Engine) SetReady(ctx context.Context, code string, actor Actor) (bool, error) {
	if err := actor.validate(); err != nil {
		return false, err
	}
	var ready bool
	err := e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		if room.Status != db.RoomWaiting {
			return fmt.Errorf("%w: ready only applies before the game starts", ErrWrongPhase)
		}
		member, err := requireMember(tx, room, actor.ID)
		if err != nil {
			return err
		}
		if room.HostIdentityID == actor.ID {
			ready = true
			return nil
		}
		ready = !member.Ready
		if err := tx.Model(member).Update("ready", ready).Error; err != nil {
			return err
		}
		return recordEvent(tx, room, eventRef{participant: uintRef(member.ID)}, eventPlayerReady, EventPayload{
			PlayerName: member.DisplayName,
			Ready:      &ready,
		})
	})
	return ready, err
}

// Start deals hands and opens round one with a random storyteller.
func (e *Engine) Start(ctx context.Context, code string, actor Actor) error {
	if err := actor.validate(); err != nil {
		return err
	}
	cards, err := e.catalog.ActiveCards(ctx)
	if err != nil {
		return err
	}
	cardIDs := make([]string, 0, len(cards))
	for _, card := range cards {
		cardIDs = append(cardIDs, card.ID)
	}
	return e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		if room.HostIdentityID != actor.ID {
			return fmt.Errorf("%w: only the host can start the game", ErrForbidden)
		}
		if room.Status != db.RoomWaiting {
			return fmt.Errorf("%w: room is %s", ErrAlreadyStarted, room.Status)
		}
		participants, err := lockParticipants(tx, room.ID)
		if err != nil {
			return err
		}
		if len(participants) < MinPlayers {
			return fmt.Errorf("%w: need at least %d players, have %d", ErrPrecondition, MinPlayers, len(participants))
		}
		for _, p := range participants {
			if p.IdentityID != room.HostIdentityID && !p.Ready {
				return fmt.Errorf("%w: %s is not ready", ErrPrecondition, p.DisplayName)
			}
		}
		hands, deck, err := Deal(cardIDs, len(participants), room.HandSize, e.reserve, e.shuffle)
		if err != nil {
			return err
		}
		for i := range participants {
			if err := tx.Model(&participants[i]).Updates(map[string]any{
				"hand_card_ids": datatypes.JSONSlice[string](hands[i]),
				"score":         0,
			}).Error; err != nil {
				return err
			}
		}
		storyteller := participants[e.intN(len(participants))]
		round := db.Round{
			RoomID:        room.ID,
			Number:        1,
			StorytellerID: storyteller.ID,
			Phase:         db.PhaseStorytellerTurn,
		}
		if err := tx.Create(&round).Error; err != nil {
			return err
		}
		now := e.now()
		if err := tx.Model(room).Updates(map[string]any{
			"status":           db.RoomPlaying,
			"started_at":       now,
			"current_round":    1,
			"current_round_id": round.ID,
			"deck_card_ids":    datatypes.JSONSlice[string](deck),
		}).Error; err != nil {
			return err
		}
		e.log.Info("game started",
			zap.String("room", room.Code),
			zap.Int("players", len(participants)),
			zap.Int("deck", len(deck)),
			zap.String("storyteller", storyteller.DisplayName),
		)
		return recordEvent(tx, room, eventRef{round: uintRef(round.ID), participant: uintRef(storyteller.ID)}, eventGameStarted, EventPayload{
			PlayerName:  storyteller.DisplayName,
			RoundNumber: 1,
			Phase:       round.Phase,
			Count:       len(participants),
		})
	})
}

// Leave removes the actor before the game starts. Once play has begun the participant is kept for
// score continuity and only marked offline.
func (e *Engine) Leave(ctx context.Context, code string, actor Actor) error {
	if err := actor.validate(); err != nil {
		return err
	}
	return e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		member, err := requireMember(tx, room, actor.ID)
		if err != nil {
			return err
		}
		ref := eventRef{participant: uintRef(member.ID)}
		if room.Status != db.RoomWaiting {
			offline := false
			if err := tx.Model(member).Updates(map[string]any{"online": false, "last_seen_at": e.now()}).Error; err != nil {
				return err
			}
			return recordEvent(tx, room, ref, eventPlayerLeft, EventPayload{PlayerName: member.DisplayName, Online: &offline})
		}

		if err := tx.Delete(member).Error; err != nil {
			return err
		}
		e.log.Info("player left", zap.String("room", room.Code), zap.String("player", member.DisplayName))
		if err := recordEvent(tx, room, ref, eventPlayerLeft, EventPayload{PlayerName: member.DisplayName}); err != nil {
			return err
		}
		if room.HostIdentityID != actor.ID {
			return nil
		}

		remaining, err := lockParticipants(tx, room.ID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			if err := tx.Model(room).Updates(map[string]any{"status": db.RoomAbandoned, "ended_at": e.now()}).Error; err != nil {
				return err
			}
			e.log.Info("room abandoned", zap.String("room", room.Code), zap.String("reason", "host left alone"))
			return recordEvent(tx, room, eventRef{}, eventRoomAbandoned, EventPayload{Reason: "host left"})
		}
		next := remaining[0]
		if err := tx.Model(room).Update("host_identity_id", next.IdentityID).Error; err != nil {
			return err
		}
		if err := tx.Model(&next).Update("ready", true).Error; err != nil {
			return err
		}
		e.log.Info("host transferred", zap.String("room", room.Code), zap.String("host", next.DisplayName))
		return recordEvent(tx, room, eventRef{participant: uintRef(next.ID)}, eventHostChanged, EventPayload{PlayerName: next.DisplayName})
	})
}

// Close abandons the room and discards the per-round records.
func (e *Engine) Close(ctx context.Context, code string, actor Actor) error {
	if err := actor.validate(); err != nil {
		return err
	}
	return e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		if room.HostIdentityID != actor.ID {
			return fmt.Errorf("%w: only the host can close the room", ErrForbidden)
		}
		if room.Terminal() {
			return fmt.Errorf("%w: room is already %s", ErrWrongPhase, room.Status)
		}
		rounds := tx.Model(&db.Round{}).Select("id").Where("room_id = ?", room.ID)
		if err := tx.Where("round_id IN (?)", rounds).Delete(&db.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("round_id IN (?)", rounds).Delete(&db.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("round_id IN (?)", rounds).Delete(&db.RoundAward{}).Error; err != nil {
			return err
		}
		if err := tx.Model(room).Updates(map[string]any{"status": db.RoomAbandoned, "ended_at": e.now()}).Error; err != nil {
			return err
		}
		e.log.Info("room closed", zap.String("room", room.Code))
		return recordEvent(tx, room, eventRef{}, eventRoomClosed, EventPayload{Reason: "closed by host"})
	})
}

// SetOnline records presence for a member; it never changes game state.
func (e *Engine) SetOnline(ctx context.Context, code string, actor Actor, online bool) error {
	if err := actor.validate(); err != nil {
		return err
	}
	return e.mutate(ctx, code, func(tx *gorm.DB, room *db.Room) error {
		member, err := requireMember(tx, room, actor.ID)
		if err != nil {
			return err
		}
		changed := member.Online != online
		if err := tx.Model(member).Updates(map[string]any{"online": online, "last_seen_at": e.now()}).Error; err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return recordEvent(tx, room, eventRef{participant: uintRef(member.ID)}, eventPresence, EventPayload{
			PlayerName: member.DisplayName,
			Online:     &online,
		})
	})
}

func findMember(tx *gorm.DB, roomID uint, identityID string) (*db.Participant, error) {
	var member db.Participant
	err := tx.Where("room_id = ? AND identity_id = ?", roomID, identityID).Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func requireMember(tx *gorm.DB, room *db.Room, identityID string) (*db.Participant, error) {
	member, err := findMember(tx, room.ID, identityID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, fmt.Errorf("%w: not a participant of room %s", ErrForbidden, room.Code)
	}
	return member, nil
}
