// Package events 把外部逻辑层产生的走子事件转换成 logic.AnimationData
//
// 事件来源有两种：yaml 回放脚本（ScriptSource）和 websocket 推送（transport/websocket）。
// 两者共用这里的 DTO，yaml 与 json 字段名一致。
package events

import "github.com/decker502/stonecrush/pkg/logic"

// DropDTO 一列的掉落
type DropDTO struct {
	Row    int      `yaml:"row" json:"row"`
	Col    int      `yaml:"col" json:"col"`
	Height int      `yaml:"height" json:"height"`
	Tokens []string `yaml:"tokens" json:"tokens"`
}

// BonusDTO 奖励石子
type BonusDTO struct {
	Token  string       `yaml:"token" json:"token"`
	Source logic.Coords `yaml:"source" json:"source"`
	Target logic.Coords `yaml:"target" json:"target"`
}

// ExplosionDTO 一个匹配结构
type ExplosionDTO struct {
	Drops []DropDTO `yaml:"drops" json:"drops"`
	Bonus *BonusDTO `yaml:"bonus,omitempty" json:"bonus,omitempty"`
}

// MoveDTO 一次走子
// explosions 为空表示无效走子
type MoveDTO struct {
	Source     logic.Coords   `yaml:"source" json:"source"`
	Target     logic.Coords   `yaml:"target" json:"target"`
	Explosions []ExplosionDTO `yaml:"explosions,omitempty" json:"explosions,omitempty"`
}

// ToAnimationData 转换为编排层的事件
// 这里不做契约校验，由 ChoreographySystem.Play 统一校验
func (m MoveDTO) ToAnimationData() logic.AnimationData {
	data := logic.AnimationData{
		SwitchSource: m.Source,
		SwitchTarget: m.Target,
	}
	for _, e := range m.Explosions {
		explosion := logic.ExplosionData{}
		for _, d := range e.Drops {
			explosion.ExplosionInfo = append(explosion.ExplosionInfo, logic.DropInfo{
				Coords:             logic.Coords{Row: d.Row, Col: d.Col},
				HeightOffset:       d.Height,
				FallingStoneTokens: append([]string(nil), d.Tokens...),
			})
		}
		if e.Bonus != nil {
			source, target := e.Bonus.Source, e.Bonus.Target
			explosion.BonusToken = e.Bonus.Token
			explosion.BonusSource = &source
			explosion.BonusTarget = &target
		}
		data.Explosions = append(data.Explosions, explosion)
	}
	return data
}

// MoveFromAnimationData 反向转换，用于把事件发送给远端播放器
func MoveFromAnimationData(data logic.AnimationData) MoveDTO {
	m := MoveDTO{Source: data.SwitchSource, Target: data.SwitchTarget}
	for _, e := range data.Explosions {
		dto := ExplosionDTO{}
		for _, d := range e.ExplosionInfo {
			dto.Drops = append(dto.Drops, DropDTO{
				Row:    d.Coords.Row,
				Col:    d.Coords.Col,
				Height: d.HeightOffset,
				Tokens: append([]string(nil), d.FallingStoneTokens...),
			})
		}
		if e.HasBonus() {
			dto.Bonus = &BonusDTO{Token: e.BonusToken, Source: *e.BonusSource, Target: *e.BonusTarget}
		}
		m.Explosions = append(m.Explosions, dto)
	}
	return m
}
