/*
 * @module service/database/migrate
 * @description 数据库迁移与基础数据初始化，建表并灌入标准KPI字典种子数据
 * @architecture 分层架构 - 数据访问层
 * @documentReference ai_docs/kpi_mapping_req.md
 * @stateFlow 应用启动 -> 表结构迁移 -> 种子数据初始化
 * @rules 种子数据只在字典为空时灌入，不覆盖运营期维护的定义
 * @dependencies gorm.io/gorm, esghub-service/service/models
 * @refs service/init.go
 */

package database

import (
	"fmt"
	"log"

	"esghub-service/service/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// AutoMigrate 迁移全部表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CanonicalKPIDefinition{},
		&models.KPIMappingRecord{},
		&models.ComplianceResultRecord{},
		&models.ComplianceCheckRegistration{},
	)
}

// seedDefinitions 标准KPI字典种子数据
var seedDefinitions = []models.CanonicalKPIDefinition{
	{ID: "CO2_SCOPE1", Name: "Scope1 温室气体直接排放量", Category: models.CategoryEnvironment, PreferredUnit: "t-CO2",
		Aliases: pq.StringArray{"scope1", "直接排放", "スコープ1", "ghg scope 1", "kg-co2"}},
	{ID: "CO2_SCOPE2", Name: "Scope2 温室气体间接排放量", Category: models.CategoryEnvironment, PreferredUnit: "t-CO2",
		Aliases: pq.StringArray{"scope2", "间接排放", "スコープ2", "ghg scope 2"}},
	{ID: "CO2_SCOPE3", Name: "Scope3 价值链排放量", Category: models.CategoryEnvironment, PreferredUnit: "t-CO2",
		Aliases: pq.StringArray{"scope3", "供应链排放", "スコープ3", "ghg scope 3"}},
	{ID: "ENERGY_CONSUMPTION", Name: "能源消耗总量", Category: models.CategoryEnvironment, PreferredUnit: "kWh",
		Aliases: pq.StringArray{"电力消耗", "能耗", "エネルギー使用量", "energy use", "mwh"}},
	{ID: "RENEWABLE_ENERGY_RATIO", Name: "可再生能源比例", Category: models.CategoryEnvironment, PreferredUnit: "%",
		Aliases: pq.StringArray{"再生可能エネルギー比率", "renewable ratio", "绿电比例"}},
	{ID: "WATER_USAGE", Name: "水资源使用量", Category: models.CategoryEnvironment, PreferredUnit: "m3",
		Aliases: pq.StringArray{"取水量", "用水量", "水使用量", "water withdrawal", "kl"}},
	{ID: "WASTE_TOTAL", Name: "废弃物总量", Category: models.CategoryEnvironment, PreferredUnit: "t",
		Aliases: pq.StringArray{"废弃物排出量", "廃棄物総量", "waste generated"}},
	{ID: "WASTE_RECYCLED_RATIO", Name: "废弃物回收率", Category: models.CategoryEnvironment, PreferredUnit: "%",
		Aliases: pq.StringArray{"リサイクル率", "recycling rate", "回收利用率"}},
	{ID: "EMPLOYEE_COUNT", Name: "员工总数", Category: models.CategorySocial, PreferredUnit: "人",
		Aliases: pq.StringArray{"従業員数", "headcount", "员工人数", "名"}},
	{ID: "FEMALE_MANAGER_RATIO", Name: "女性管理层比例", Category: models.CategorySocial, PreferredUnit: "%",
		Aliases: pq.StringArray{"女性管理職比率", "female managers", "女性管理者比例"}},
	{ID: "TURNOVER_RATE", Name: "员工离职率", Category: models.CategorySocial, PreferredUnit: "%",
		Aliases: pq.StringArray{"離職率", "attrition rate", "流失率"}},
	{ID: "TRAINING_HOURS", Name: "人均培训时长", Category: models.CategorySocial, PreferredUnit: "時間",
		Aliases: pq.StringArray{"研修時間", "training hours per employee", "培训小时数", "h"}},
	{ID: "ACCIDENT_RATE", Name: "工伤事故率", Category: models.CategorySocial, PreferredUnit: "%",
		Aliases: pq.StringArray{"労働災害度数率", "ltifr", "安全事故率"}},
	{ID: "BOARD_INDEPENDENCE_RATIO", Name: "独立董事比例", Category: models.CategoryGovernance, PreferredUnit: "%",
		Aliases: pq.StringArray{"社外取締役比率", "independent directors", "独董比例"}},
	{ID: "FEMALE_BOARD_RATIO", Name: "女性董事比例", Category: models.CategoryGovernance, PreferredUnit: "%",
		Aliases: pq.StringArray{"女性取締役比率", "female board members"}},
	{ID: "COMPLIANCE_VIOLATIONS", Name: "合规违规事件数", Category: models.CategoryGovernance, PreferredUnit: "件",
		Aliases: pq.StringArray{"コンプライアンス違反件数", "violations", "违规件数"}},
	{ID: "REVENUE", Name: "营业收入", Category: models.CategoryFinancial, PreferredUnit: "円",
		Aliases: pq.StringArray{"売上高", "revenue", "营收", "jpy"}},
	{ID: "RND_EXPENSE", Name: "研发投入", Category: models.CategoryFinancial, PreferredUnit: "円",
		Aliases: pq.StringArray{"研究開発費", "r&d expense", "研发费用"}},
}

// InitializeData 初始化字典种子数据
func InitializeData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.CanonicalKPIDefinition{}).Count(&count).Error; err != nil {
		return fmt.Errorf("字典计数查询失败: %w", err)
	}
	if count > 0 {
		log.Printf("KPI字典已有 %d 条定义，跳过种子数据初始化", count)
		return nil
	}

	for i := range seedDefinitions {
		seedDefinitions[i].IsActive = true
	}
	if err := db.Create(&seedDefinitions).Error; err != nil {
		return fmt.Errorf("字典种子数据写入失败: %w", err)
	}
	log.Printf("KPI字典种子数据初始化完成，共 %d 条定义", len(seedDefinitions))
	return nil
}
