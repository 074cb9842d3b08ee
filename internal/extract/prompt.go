package extract

// extractionPrompt is the fixed instruction sent with every request. The JSON
// structure it describes is the contract the normalizer is written against;
// change both together.
const extractionPrompt = `You are an expert at extracting data from Vietnamese VAT invoices (Hóa đơn giá trị gia tăng).

Analyze the invoice image(s) and extract ALL information into a structured JSON format.

IMPORTANT RULES:
1. Extract ALL line items from the invoice table
2. Numbers should be extracted as numeric values (not strings), removing thousand separators (dots in Vietnamese format)
3. VAT rate should be a percentage number (e.g., 5 for 5%, 10 for 10%), or the literal string shown when it is not numeric (e.g., "khác", "KCT")
4. Dates should be in format "DD/MM/YYYY"
5. If a field is empty or not found, use null
6. Calculate vat_amount and amount_after_vat for each item if not explicitly shown

Required JSON structure:
{
    "header": {
        "invoice_number": "string - Số hóa đơn (e.g., 94)",
        "invoice_series": "string - Ký hiệu (e.g., C25TDX)",
        "invoice_date": "string - Ngày hóa đơn in DD/MM/YYYY format",
        "mccqt": "string - Mã MCCQT code if present",

        "seller_name": "string - Tên người bán",
        "seller_tax_code": "string - MST bên bán",
        "seller_address": "string - Địa chỉ người bán",
        "seller_phone": "string - Điện thoại người bán",
        "seller_bank_account": "string - Số tài khoản người bán",
        "seller_bank_name": "string - Tên ngân hàng người bán",

        "buyer_name": "string - Tên người mua",
        "buyer_tax_code": "string - MST bên mua",
        "buyer_address": "string - Địa chỉ người mua",
        "payment_method": "string - Hình thức thanh toán",
        "currency": "string - Đơn vị tiền tệ (e.g., VND)"
    },
    "items": [
        {
            "stt": "number - line item number",
            "item_name": "string - Tên hàng hóa, dịch vụ",
            "unit": "string - Đơn vị tính",
            "quantity": "number - Số lượng",
            "unit_price": "number - Đơn giá",
            "discount": "number or null - Chiết khấu",
            "vat_rate": "number - Thuế suất as percentage (5 for 5%)",
            "amount_before_vat": "number - Thành tiền chưa có thuế GTGT",
            "vat_amount": "number - Tiền thuế GTGT for this item",
            "amount_after_vat": "number - Thành tiền sau thuế for this item"
        }
    ],
    "totals": {
        "total_before_vat": "number - Tổng tiền chưa thuế",
        "total_vat": "number - Tổng tiền thuế",
        "total_fee": "number or null - Tổng tiền phí",
        "total_discount": "number or null - Tổng tiền chiết khấu",
        "total_after_vat": "number - Tổng tiền thanh toán",
        "total_in_words": "string - Tổng tiền thanh toán bằng chữ"
    }
}

Return ONLY valid JSON, no markdown code blocks or extra text.`
