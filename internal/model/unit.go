package model

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	pkgerrors "feecc-workbench/pkg/errors"
)

// UnitStatus 产品生命周期状态
type UnitStatus string

const (
	UnitStatusProduction UnitStatus = "production"
	UnitStatusBuilt      UnitStatus = "built"
	UnitStatusRevision   UnitStatus = "revision"
	UnitStatusFinalized  UnitStatus = "finalized"
)

// unitStatusTransitions 状态只能向前推进
var unitStatusTransitions = map[UnitStatus][]UnitStatus{
	UnitStatusProduction: {UnitStatusBuilt},
	UnitStatusBuilt:      {UnitStatusRevision, UnitStatusFinalized},
	UnitStatusRevision:   {UnitStatusBuilt},
}

// CanTransitionTo 判断状态迁移是否合法
func (s UnitStatus) CanTransitionTo(target UnitStatus) bool {
	for _, next := range unitStatusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// InWork 产品是否处于可以在工位上加工的状态
func (s UnitStatus) InWork() bool {
	return s == UnitStatusProduction || s == UnitStatusRevision
}

// ── 产品模型业务错误 ──

var (
	ErrAllComponentsAssigned    = fmt.Errorf("%w: 所有组件均已装配", pkgerrors.ErrAssemblyRejected)
	ErrComponentNotRequired     = fmt.Errorf("%w: 该产品不需要此类组件", pkgerrors.ErrAssemblyRejected)
	ErrComponentSlotTaken       = fmt.Errorf("%w: 该类组件已装配", pkgerrors.ErrAssemblyRejected)
	ErrComponentNotBuilt        = fmt.Errorf("%w: 组件尚未完成生产", pkgerrors.ErrAssemblyRejected)
	ErrComponentAlreadyFeatured = fmt.Errorf("%w: 组件已被装配到其他产品", pkgerrors.ErrAssemblyRejected)
	ErrComponentIsSelf          = fmt.Errorf("%w: 产品不能装配自身", pkgerrors.ErrAssemblyRejected)

	ErrStageAlreadyOpen   = fmt.Errorf("%w: 产品已有进行中的工序", pkgerrors.ErrStateForbidden)
	ErrNoPendingStage     = fmt.Errorf("%w: 产品没有待完成的工序", pkgerrors.ErrStateForbidden)
	ErrNoOpenStage        = fmt.Errorf("%w: 产品没有进行中的工序", pkgerrors.ErrStateForbidden)
	ErrUnitNotInWork      = fmt.Errorf("%w: 产品当前状态不允许加工", pkgerrors.ErrStateForbidden)
	ErrInvalidUnitStatus  = fmt.Errorf("%w: 产品状态迁移不合法", pkgerrors.ErrStateForbidden)
	ErrComponentsUnfilled = fmt.Errorf("%w: 组件尚未装配齐全", pkgerrors.ErrStateForbidden)
)

// Unit 产品表 — 对应 units
//
// internal_id 由 uuid 确定性派生（EAN-13 条码），创建后不可变。
// Components 仅在加载组合产品时填充，不落库。
type Unit struct {
	UUID             string            `gorm:"type:varchar(32);primaryKey"            json:"uuid"`
	InternalID       string            `gorm:"type:varchar(13);uniqueIndex;not null"  json:"internal_id"`
	SchemaID         string            `gorm:"type:varchar(64);index;not null"        json:"schema_id"`
	Status           UnitStatus        `gorm:"type:varchar(16);index;not null"        json:"status"`
	FeaturedIn       *string           `gorm:"type:varchar(13);index"                 json:"featured_in_int_id,omitempty"`
	ComponentSlots   ComponentSlots    `json:"components_internal_ids"`
	SerialNumber     *string           `gorm:"type:varchar(64)"                       json:"serial_number,omitempty"`
	PassportCID      *string           `gorm:"column:passport_cid;type:varchar(128)"  json:"passport_ipfs_cid,omitempty"`
	PassportLink     *string           `gorm:"type:text"                              json:"passport_link,omitempty"`
	PassportShortURL *string           `gorm:"type:text"                              json:"passport_short_url,omitempty"`
	TxnHash          *string           `gorm:"type:varchar(128)"                      json:"txn_hash,omitempty"`
	PublicationError *string           `gorm:"type:text"                              json:"publication_error,omitempty"`
	BaseModel
	Stages     []ProductionStage `gorm:"foreignKey:UnitUUID;references:UUID" json:"biography"`
	Schema     *ProductionSchema `gorm:"foreignKey:SchemaID;references:SchemaID" json:"-"`
	Components []*Unit           `gorm:"-" json:"-"`
}

// TableName 指定表名
func (Unit) TableName() string { return "units" }

// NewUnit 按生产方案创建新产品：预生成全部工序与空的组件槽位
func NewUnit(schema *ProductionSchema, now time.Time) *Unit {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")

	u := &Unit{
		UUID:       id,
		InternalID: InternalIDFromUUID(id),
		SchemaID:   schema.SchemaID,
		Status:     UnitStatusProduction,
		Schema:     schema,
		BaseModel:  BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	u.Stages = stagesFromSchema(u.UUID, schema, 0)

	if schema.IsComposite() {
		u.ComponentSlots = make(ComponentSlots, len(schema.RequiredComponentsSchemaIDs))
		for _, sid := range schema.RequiredComponentsSchemaIDs {
			u.ComponentSlots[sid] = ""
		}
	}

	return u
}

func stagesFromSchema(unitUUID string, schema *ProductionSchema, startNumber int) []ProductionStage {
	stages := make([]ProductionStage, 0, len(schema.ProductionStages))
	for i, st := range schema.ProductionStages {
		schemaStageID := st.StageID
		stages = append(stages, ProductionStage{
			StageID:       uuid.NewString(),
			UnitUUID:      unitUUID,
			Name:          st.Name,
			SchemaStageID: &schemaStageID,
			Number:        startNumber + i,
		})
	}
	return stages
}

// InternalIDFromUUID 由 uuid（十六进制）派生 EAN-13 条码：
// 取其十进制表示的前 12 位，追加校验位
func InternalIDFromUUID(hexUUID string) string {
	n, ok := new(big.Int).SetString(strings.ReplaceAll(hexUUID, "-", ""), 16)
	if !ok {
		n = big.NewInt(0)
	}
	digits := n.String()
	if len(digits) < 12 {
		digits = strings.Repeat("0", 12-len(digits)) + digits
	}
	body := digits[:12]
	return body + fmt.Sprintf("%d", EAN13CheckDigit(body))
}

// EAN13CheckDigit 计算 12 位数字的 EAN-13 校验位
func EAN13CheckDigit(body string) int {
	sum := 0
	for i, r := range body {
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

// ── 组合装配 ──

// IsComposite 是否需要装配组件
func (u *Unit) IsComposite() bool {
	return len(u.ComponentSlots) > 0
}

// ComponentsFilled 所有声明的槽位均已装配；非组合产品恒为 true
func (u *Unit) ComponentsFilled() bool {
	for _, v := range u.ComponentSlots {
		if v == "" {
			return false
		}
	}
	return true
}

// AssignComponent 将组件装配到本产品
// 任一前置条件不满足时返回错误，且本产品与组件均不被修改
func (u *Unit) AssignComponent(component *Unit) error {
	if u.ComponentsFilled() {
		return ErrAllComponentsAssigned
	}
	slot, required := u.ComponentSlots[component.SchemaID]
	if !required {
		return ErrComponentNotRequired
	}
	if slot != "" {
		return ErrComponentSlotTaken
	}
	if component.Status != UnitStatusBuilt {
		return ErrComponentNotBuilt
	}
	if component.FeaturedIn != nil && *component.FeaturedIn != "" {
		return ErrComponentAlreadyFeatured
	}
	if component.UUID == u.UUID {
		return ErrComponentIsSelf
	}

	parentID := u.InternalID
	component.FeaturedIn = &parentID
	u.ComponentSlots[component.SchemaID] = component.InternalID
	u.Components = append(u.Components, component)
	return nil
}

// AssignedComponents 已装配的组件：方案 ID → internal_id
func (u *Unit) AssignedComponents() map[string]string {
	if !u.IsComposite() {
		return nil
	}
	return u.ComponentSlots.Clone()
}

// ── 工序推进 ──

// NextPendingStage 第一个未完成的工序；没有时返回 -1
func (u *Unit) NextPendingStage() (int, *ProductionStage) {
	for i := range u.Stages {
		if !u.Stages[i].Completed {
			return i, &u.Stages[i]
		}
	}
	return -1, nil
}

// OpenStage 已开始且未完成的工序；没有时返回 -1
func (u *Unit) OpenStage() (int, *ProductionStage) {
	for i := range u.Stages {
		if u.Stages[i].IsOpen() {
			return i, &u.Stages[i]
		}
	}
	return -1, nil
}

// StartSession 以指定员工身份开启下一个待完成工序
func (u *Unit) StartSession(employeeCode string, now time.Time, extra map[string]interface{}) (*ProductionStage, error) {
	if !u.Status.InWork() {
		return nil, ErrUnitNotInWork
	}
	if !u.ComponentsFilled() {
		return nil, ErrComponentsUnfilled
	}
	if idx, _ := u.OpenStage(); idx >= 0 {
		return nil, ErrStageAlreadyOpen
	}
	idx, pending := u.NextPendingStage()
	if idx < 0 {
		return nil, ErrNoPendingStage
	}

	started := pending.Clone()
	code := employeeCode
	start := now
	started.EmployeeCode = &code
	started.StartTime = &start
	started.EndTime = nil
	started.ExtraData = mergeExtra(started.ExtraData, extra)

	u.replaceStage(idx, started)
	return &u.Stages[idx], nil
}

// EndSession 结束当前进行中的工序
//
// premature 为 true 时，在其后插入一个克隆出的待完成工序，并将后续工序序号顺延，
// 保证剩余工作不会被跳过。全部工序完成后产品进入 built 状态。
func (u *Unit) EndSession(now time.Time, videoHashes []string, extra map[string]interface{}, premature bool) (*ProductionStage, error) {
	idx, open := u.OpenStage()
	if idx < 0 {
		return nil, ErrNoOpenStage
	}

	ended := open.Clone()
	end := now
	ended.EndTime = &end
	ended.Completed = true
	ended.EndedPrematurely = premature
	if len(videoHashes) > 0 {
		ended.VideoHashes = append(ended.VideoHashes, videoHashes...)
	}
	ended.ExtraData = mergeExtra(ended.ExtraData, extra)

	stages := make([]ProductionStage, 0, len(u.Stages)+1)
	stages = append(stages, u.Stages[:idx]...)
	stages = append(stages, ended)
	if premature {
		stages = append(stages, ProductionStage{
			StageID:       uuid.NewString(),
			UnitUUID:      u.UUID,
			Name:          open.Name,
			SchemaStageID: ended.SchemaStageID,
			Number:        ended.Number + 1,
		})
	}
	for _, rest := range u.Stages[idx+1:] {
		next := rest.Clone()
		if premature {
			next.Number++
		}
		stages = append(stages, next)
	}
	u.Stages = stages

	if u.allStagesCompleted() {
		if err := u.transition(UnitStatusBuilt); err != nil {
			return nil, err
		}
	}

	return &u.Stages[idx], nil
}

func (u *Unit) replaceStage(idx int, stage ProductionStage) {
	stages := make([]ProductionStage, len(u.Stages))
	copy(stages, u.Stages)
	stages[idx] = stage
	u.Stages = stages
}

func (u *Unit) allStagesCompleted() bool {
	for i := range u.Stages {
		if !u.Stages[i].Completed {
			return false
		}
	}
	return true
}

func (u *Unit) transition(target UnitStatus) error {
	if !u.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidUnitStatus, u.Status, target)
	}
	u.Status = target
	return nil
}

// StartRevision 将已完成的产品重新打开返修：追加一轮方案工序
func (u *Unit) StartRevision(schema *ProductionSchema) error {
	if err := u.transition(UnitStatusRevision); err != nil {
		return err
	}
	next := 0
	for i := range u.Stages {
		if u.Stages[i].Number >= next {
			next = u.Stages[i].Number + 1
		}
	}
	u.Stages = append(append([]ProductionStage{}, u.Stages...), stagesFromSchema(u.UUID, schema, next)...)
	return nil
}

// Finalize 将已完成的产品归档，之后不再允许任何修改
func (u *Unit) Finalize() error {
	return u.transition(UnitStatusFinalized)
}

// TotalAssemblyTime 所有工序耗时之和
func (u *Unit) TotalAssemblyTime(now time.Time) time.Duration {
	var total time.Duration
	for i := range u.Stages {
		total += u.Stages[i].Duration(now)
	}
	return total
}

// Clone 深拷贝产品及其组件，工位在副本上修改，持久化成功后再替换
func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	out := *u
	out.FeaturedIn = cloneString(u.FeaturedIn)
	out.SerialNumber = cloneString(u.SerialNumber)
	out.PassportCID = cloneString(u.PassportCID)
	out.PassportLink = cloneString(u.PassportLink)
	out.PassportShortURL = cloneString(u.PassportShortURL)
	out.TxnHash = cloneString(u.TxnHash)
	out.PublicationError = cloneString(u.PublicationError)
	out.ComponentSlots = u.ComponentSlots.Clone()
	if u.Stages != nil {
		out.Stages = make([]ProductionStage, len(u.Stages))
		for i := range u.Stages {
			out.Stages[i] = u.Stages[i].Clone()
		}
	}
	if u.Components != nil {
		out.Components = make([]*Unit, len(u.Components))
		for i, c := range u.Components {
			out.Components[i] = c.Clone()
		}
	}
	return &out
}

// VideoHashes 汇总所有工序的视频标识
func (u *Unit) VideoHashes() datatypes.JSONSlice[string] {
	var out datatypes.JSONSlice[string]
	for i := range u.Stages {
		out = append(out, u.Stages[i].VideoHashes...)
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
