package catalog

import (
	"regexp"
	"sync"
)

// Field IDs referenced by the engine.
const (
	FieldUnit              = "unit"
	FieldNFMonth           = "nf_month"
	FieldRecipients        = "recipients"
	FieldFinalMonthlyValue = "final_monthly_value"
	FieldContract          = "contract"
	FieldEmployee          = "employee"
	FieldStatus            = "status"
	FieldCategory          = "category"
	FieldSupplier          = "supplier"
	FieldHeadcount         = "headcount"
	FieldAbsenceDays       = "absence_days"
	FieldDelayHours        = "delay_hours"
	FieldSheetValue        = "sheet_value"
	FieldAbsenceDiscount   = "absence_discount"
	FieldDelayDiscount     = "delay_discount"
	FieldBillingMonth      = "billing_month"
	FieldSLAMonth          = "sla_month_discount"

	FieldSLARetroactive       = "sla_retroactive_discount"
	FieldEquipmentDiscount    = "equipment_discount"
	FieldAttendanceBonus      = "attendance_bonus"
	FieldOtherDiscounts       = "other_discounts"
	FieldExtensionFee         = "payment_extension_fee"
	FieldExtendedMonthlyValue = "extended_monthly_value"
	FieldWageRetroactive      = "wage_agreement_retroactive"
	FieldInstallment          = "installment"
	FieldValidatedExtras      = "validated_extras"
)

// Placeholder labels shown instead of a missing value.
const (
	PlaceholderInfoPending = "Informação pendente"
	PlaceholderFillPending = "Preenchimento pendente"
)

// GeneralDiscounts is the summary key holding the sum of every discount field.
const GeneralDiscounts = "general_discounts"

var nfMonthPattern = regexp.MustCompile(`\bmes\b.*\bemissao\b.*\b(nf|nota)\b|\b(nf|nota)\b.*\bemissao\b.*\bmes\b`)

// Default returns the built-in catalog. It is built once; an error means the
// binary was shipped with a broken catalog.
var Default = sync.OnceValues(func() (*Catalog, error) {
	return New(defaultFields(), []string{
		FieldUnit,
		FieldCategory,
		FieldSupplier,
		FieldHeadcount,
		FieldAbsenceDays,
		FieldDelayHours,
		FieldSheetValue,
		FieldAbsenceDiscount,
		FieldDelayDiscount,
		FieldSLAMonth,
		FieldFinalMonthlyValue,
		FieldBillingMonth,
		FieldNFMonth,
	})
})

func defaultFields() []Field {
	return []Field{
		{
			ID:       FieldUnit,
			Name:     "Unidade",
			Kind:     KindRequired,
			Synonyms: []string{"Shopping", "Unidade/Shopping", "Unid.", "Unidade - Shopping"},
		},
		{
			ID:   FieldNFMonth,
			Name: "Mês de emissão da NF",
			Kind: KindRequired,
			Synonyms: []string{
				"Mês emissão NF", "Mês de emissão Nota Fiscal", "Mes Emissao NF", "Mes NF",
				"Competencia NF", "Competência NF", "Competencia", "Competência",
				"Mês emissão da nota", "Mês de emissão da nota", "Mês emissão nota fiscal",
			},
			Pattern:        nfMonthPattern,
			DisplayAliases: []string{"competencia nf", "mes referencia", "mes emissao"},
			Format:         FormatMonth,
		},
		{
			ID:   FieldRecipients,
			Name: "E-mail",
			Kind: KindStandard,
			Synonyms: []string{
				"Email", "E-mails", "Emails", "Contatos", "Destinatários", "Destinatarios",
				"Destinatários (E-mail)", "Destinatários (Email)",
			},
		},
		{
			ID:   FieldFinalMonthlyValue,
			Name: "Valor Mensal Final",
			Kind: KindStandard,
			Synonyms: []string{
				"Valor_Mensal_Final", "Valor Mensal", "Total Faturamento", "Valor com Descontos",
				"Valor Final", "Valor Faturado (Final)", "Valor Final Faturamento", "Valor Faturado",
			},
			Forbidden:      []string{"prorrog", "planilha"},
			DisplayAliases: []string{"total", "valor total"},
			Ensure:         true,
			Format:         FormatMoney,
			Placeholder:    PlaceholderFillPending,
			Summed:         true,
		},
		{
			ID:        FieldContract,
			Name:      "Contrato",
			Kind:      KindStandard,
			Synonyms:  []string{"Número do Pedido", "Pedido", "OrderNumber", "Nº Pedido", "Nº do Pedido"},
			Forbidden: []string{"status", "categoria"},
		},
		{
			ID:       FieldEmployee,
			Name:     "Funcionário",
			Kind:     KindStandard,
			Synonyms: []string{"Colaborador", "Funcionário/Colaborador", "Nome do Funcionário"},
		},
		{
			ID:       FieldStatus,
			Name:     "Status",
			Kind:     KindStandard,
			Synonyms: []string{"Status do Contrato", "Situação"},
		},
		{
			ID:       FieldCategory,
			Name:     "Categoria",
			Kind:     KindStandard,
			Synonyms: []string{"Categoria_Contrato"},
			Ensure:   true,
		},
		{
			ID:       FieldSupplier,
			Name:     "Fornecedor",
			Kind:     KindStandard,
			Synonyms: []string{"Razao Social", "Razão Social", "Razao_Social"},
			Ensure:   true,
		},
		{
			ID:       FieldHeadcount,
			Name:     "HC Planilha",
			Kind:     KindStandard,
			Synonyms: []string{"HC_Planilha"},
			Ensure:   true,
		},
		{
			ID:          FieldAbsenceDays,
			Name:        "Dias Faltas",
			Kind:        KindStandard,
			Synonyms:    []string{"Dias_Faltas"},
			Ensure:      true,
			Format:      FormatPending,
			Placeholder: PlaceholderInfoPending,
		},
		{
			ID:          FieldDelayHours,
			Name:        "Horas Atrasos",
			Kind:        KindStandard,
			Synonyms:    []string{"Horas_Atrasos"},
			Ensure:      true,
			Format:      FormatDuration,
			Placeholder: PlaceholderInfoPending,
		},
		{
			ID:          FieldSheetValue,
			Name:        "Valor Planilha",
			Kind:        KindStandard,
			Synonyms:    []string{"Valor_Planilha"},
			Ensure:      true,
			Format:      FormatMoney,
			Placeholder: PlaceholderInfoPending,
		},
		{
			ID:   FieldAbsenceDiscount,
			Name: "Desc. Falta Validado Atlas",
			Kind: KindStandard,
			Synonyms: []string{
				"Desconto Falta Validado Atlas", "Desc_Falta", "Desconto_Falta_Validado_Atlas",
			},
			TokenSets:   [][]string{{"desc", "falta", "validado", "atlas"}, {"falta", "validado", "atlas"}},
			Ensure:      true,
			Format:      FormatMoney,
			Placeholder: PlaceholderInfoPending,
			Summed:      true,
			Discount:    true,
		},
		{
			ID:   FieldDelayDiscount,
			Name: "Desc. Atraso Validado Atlas",
			Kind: KindStandard,
			Synonyms: []string{
				"Desconto Atraso Validado Atlas", "Desc_Atraso", "Desconto_Atrasos_Validado_Atlas",
			},
			TokenSets: [][]string{
				{"desc", "atras", "validado", "atlas"}, {"atraso", "validado", "atlas"}, {"atrasos", "validado", "atlas"},
			},
			Ensure:      true,
			Format:      FormatMoney,
			Placeholder: PlaceholderInfoPending,
			Summed:      true,
			Discount:    true,
		},
		{
			ID:   FieldBillingMonth,
			Name: "Mês referência para faturamento",
			Kind: KindStandard,
			Synonyms: []string{
				"Mes referencia para faturamento", "Mês de referência", "Mes de referencia", "Referencia faturamento",
			},
			Ensure: true,
			Format: FormatMonth,
		},
		{
			ID:   FieldSLAMonth,
			Name: "Desconto SLA Mês",
			Kind: KindSLAMonth,
			Synonyms: []string{
				"Desc. SLA Mês", "Desc. SLA Mês / Equip.", "Desc_SLA", "Desconto_SLA_Mes", "Desconto_SLA_Mês",
				"Desconto SLA Mes", "Desconto_SLA_Mes_Desconto_Equipamentos", "SLA Desconto Mês", "Desconto SLA",
				"SLA Mês (Desconto)",
			},
			TokenSets: [][]string{{"sla", "desconto"}, {"sla", "desc"}},
			Forbidden: []string{
				"retro", "retr", "retroativ", "equip", "equipamento", "assiduidade", "outros",
				"prorrog", "parcela", "dissidio", "extra",
			},
			Ensure:      true,
			Format:      FormatMoney,
			Placeholder: PlaceholderFillPending,
			Summed:      true,
			Discount:    true,
		},
		{
			ID:   FieldSLARetroactive,
			Name: "Desconto SLA Retroativo",
			Kind: KindExtra,
			Synonyms: []string{
				"Desc. SLA Retroativo", "Desc SLA Retroativo", "Retroativo SLA (desconto)", "Retroativo SLA",
				"Desconto Retroativo SLA", "SLA Retroativo (desconto)", "SLA desconto retroativo",
				"SLA - Desconto Retroativo", "Desconto SLA (Retroativo)", "Retroativo (SLA)",
				"Desc. SLA Ret.", "Desc SLA Ret", "SLA Ret.", "Retro. SLA", "SLA retro", "Desconto SLA Ret",
			},
			TokenSets: [][]string{
				{"sla", "retro"}, {"retroativo", "sla"}, {"desconto", "retro"}, {"sla", "retroativo"},
				{"sla", "ret"}, {"ret", "sla"}, {"sla", "retr"}, {"retr", "sla"}, {"retro", "sla"},
				{"desc", "sla", "ret"}, {"retro", "sla", "desc"}, {"sla", "retro", "desc"},
			},
			Forbidden: []string{"dissidio"},
			Ensure:    true,
			Format:    FormatMoney,
			Summed:    true,
			Discount:  true,
			Anchor:    FieldSLAMonth,
			Rescue:    &RescueRule{All: []string{"sla"}, Any: []string{"retro", "retr"}, None: []string{"dissidio"}},
		},
		{
			ID:        FieldEquipmentDiscount,
			Name:      "Desconto Equipamentos",
			Kind:      KindExtra,
			Synonyms:  []string{"Desc. Equipamentos", "Desconto de Equipamentos", "Desc Equipamentos"},
			TokenSets: [][]string{{"equip"}, {"equipamentos"}, {"desc", "equip"}},
			Forbidden: []string{"sla"},
			Ensure:    true,
			Format:    FormatMoney,
			Summed:    true,
			Discount:  true,
			Anchor:    FieldSLAMonth,
			Rescue:    &RescueRule{Any: []string{"equip"}, None: []string{"sla"}},
		},
		{
			ID:        FieldAttendanceBonus,
			Name:      "Prêmio Assiduidade",
			Kind:      KindExtra,
			Synonyms:  []string{"Premio Assiduidade", "Premiação Assiduidade"},
			TokenSets: [][]string{{"premio", "assiduidade"}},
			Ensure:    true,
			Format:    FormatMoney,
			Summed:    true,
			Discount:  true,
			Anchor:    FieldSLAMonth,
			Rescue:    &RescueRule{All: []string{"assiduidade"}},
		},
		{
			ID:        FieldOtherDiscounts,
			Name:      "Outros descontos",
			Kind:      KindExtra,
			Synonyms:  []string{"Outros desc.", "Outros Desc", "Outro desconto"},
			TokenSets: [][]string{{"outros", "descont"}, {"outros", "desc"}},
			Ensure:    true,
			Format:    FormatMoney,
			Summed:    true,
			Discount:  true,
			Anchor:    FieldSLAMonth,
			Rescue:    &RescueRule{All: []string{"outros"}, Any: []string{"desc"}},
		},
		{
			ID:   FieldExtensionFee,
			Name: "Taxa de prorrogação do prazo pagamento",
			Kind: KindExtra,
			Synonyms: []string{
				"Taxa de prorrogação do prazo de pagamento", "Taxa prorrogacao prazo pagamento",
				"Taxa prorrogação pagamento", "Taxa prorrogação",
			},
			TokenSets: [][]string{{"taxa", "prorrog"}, {"taxa", "prazo", "pagamento"}},
			Forbidden: []string{"valor"},
			Ensure:    true,
			Format:    FormatPercent,
			Anchor:    FieldFinalMonthlyValue,
			Rescue:    &RescueRule{All: []string{"taxa", "prorrog"}, None: []string{"valor"}},
		},
		{
			ID:   FieldExtendedMonthlyValue,
			Name: "Valor mensal com prorrogação do prazo pagamento",
			Kind: KindExtra,
			Synonyms: []string{
				"Valor mensal com prorrogação do prazo de pagamento", "Valor mensal c/ prorrogação",
				"Valor mensal prorrogado", "Valor com prorrogação do prazo pagamento",
			},
			TokenSets: [][]string{{"valor", "mensal", "prorrog"}, {"mensal", "prorrog"}},
			Forbidden: []string{"taxa"},
			Ensure:    true,
			Format:    FormatMoney,
			Anchor:    FieldFinalMonthlyValue,
			Rescue:    &RescueRule{All: []string{"prorrog"}, Any: []string{"valor", "mensal"}, None: []string{"taxa"}},
		},
		{
			ID:        FieldWageRetroactive,
			Name:      "Retroativo de dissídio",
			Kind:      KindExtra,
			Synonyms:  []string{"Retroativo dissidio", "Retroativo Dissídio"},
			TokenSets: [][]string{{"retroativo", "dissidio"}},
			Ensure:    true,
			Format:    FormatMoney,
			Anchor:    FieldFinalMonthlyValue,
			Rescue:    &RescueRule{All: []string{"dissidio"}, Any: []string{"retro"}, None: []string{"sla"}},
		},
		{
			ID:        FieldInstallment,
			Name:      "Parcela (x/x)",
			Kind:      KindExtra,
			Synonyms:  []string{"Parcela", "Parcela x/x", "Parcela(x/x)", "Nº parcela", "Numero parcela", "No parcela"},
			TokenSets: [][]string{{"parcela"}},
			Ensure:    true,
			Anchor:    FieldFinalMonthlyValue,
			Rescue:    &RescueRule{All: []string{"parcela"}},
		},
		{
			ID:   FieldValidatedExtras,
			Name: "Valor extras validado Atlas",
			Kind: KindExtra,
			Synonyms: []string{
				"Valor extra validado Atlas", "Extras validados Atlas", "Valor extra (Atlas)", "Valor extras Atlas",
			},
			TokenSets: [][]string{{"valor", "extra", "atlas"}, {"extras", "atlas"}},
			Ensure:    true,
			Format:    FormatMoney,
			Anchor:    FieldFinalMonthlyValue,
			Rescue:    &RescueRule{All: []string{"extra"}, Any: []string{"atlas", "valid"}},
		},
	}
}
